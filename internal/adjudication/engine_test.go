package adjudication

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearclaim/go-ace/internal/domain/claim"
	"github.com/clearclaim/go-ace/internal/domain/policy"
	"github.com/clearclaim/go-ace/pkg/money"
	"pgregory.net/rapid"
)

func TestAdjudicatePolicyMismatch(t *testing.T) {
	cl := testClaim(officeVisit("150.00"))
	cl.PolicyNumber = "POL-99999"

	_, err := testEngine().Adjudicate(cl, testPolicy())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPolicyMismatch)
}

func TestAdjudicateInvalidClaim(t *testing.T) {
	e := testEngine()

	cl := testClaim(officeVisit("150.00"))
	cl.ClaimID = ""
	_, err := e.Adjudicate(cl, testPolicy())
	assert.ErrorIs(t, err, claim.ErrMissingClaimID)

	bad := officeVisit("150.00")
	bad.Units = 0
	_, err = e.Adjudicate(testClaim(bad), testPolicy())
	assert.ErrorIs(t, err, claim.ErrNonPositiveUnits)

	negative := officeVisit("150.00")
	negative.BilledAmount = money.Zero.Sub(amt("5.00"))
	_, err = e.Adjudicate(testClaim(negative), testPolicy())
	assert.ErrorIs(t, err, claim.ErrNegativeAmount)
}

func TestAdjudicateInvalidPolicy(t *testing.T) {
	pol := testPolicy()
	pol.Coverages[0].CoinsurancePct = 120

	_, err := testEngine().Adjudicate(testClaim(officeVisit("150.00")), pol)
	assert.ErrorIs(t, err, policy.ErrInvalidCoinsurance)
}

// A $150 office visit against a fresh $1,000 deductible: the whole amount
// is patient deductible, nothing is left for a copay, and the claim is
// approved.
func TestAdjudicateDeductibleOfficeVisit(t *testing.T) {
	d, err := testEngine().Adjudicate(testClaim(officeVisit("150.00")), testPolicy())
	require.NoError(t, err)

	assert.Equal(t, DecisionApproved, d.Type)
	assert.Equal(t, "150.00", d.Breakdown.PatientShare.String())
	assert.Equal(t, "0.00", d.Breakdown.InsurerPayment.String())
	assert.Equal(t, "150.00", d.Breakdown.DeductibleApplied.String())
	assert.Equal(t, "0.00", d.Breakdown.CopayApplied.String())
	assert.InDelta(t, 0.95, d.Confidence, 1e-9)
	assert.Empty(t, d.Findings)
	assert.False(t, d.RequiresManualReview)
}

// A claim whose items carry no usable codes: every coverage lookup returns
// the sentinel, everything is disallowed, and the claim is rejected on the
// per-item critical findings.
func TestAdjudicateUncodedClaimRejected(t *testing.T) {
	blank := func(billed string) claim.Item {
		return claim.Item{ServiceDate: serviceDate, BilledAmount: amt(billed), Units: 1}
	}
	cl := testClaim(blank("100.00"), blank("250.00"))
	cl.PrimaryDiagnosis = ""

	d, err := testEngine().Adjudicate(cl, testPolicy())
	require.NoError(t, err)

	assert.Equal(t, DecisionRejected, d.Type)
	assert.InDelta(t, 0.95, d.Confidence, 1e-9)
	assert.Equal(t, "350.00", d.Breakdown.Disallowed.String())
	assert.Equal(t, "0.00", d.Breakdown.InsurerPayment.String())

	criticals := d.CriticalFindings()
	require.Len(t, criticals, 2)
	for _, f := range criticals {
		assert.Equal(t, CheckCoverageExists, f.CheckName)
		assert.Contains(t, f.Message, "service not covered")
	}
	assert.Contains(t, d.Reasoning, "rejected")
}

// A $75,000 claim with no critical findings exceeds the $10,000 high-value
// threshold and goes to review with confidence in the 0.70-0.80 band.
func TestAdjudicateHighValueNeedsReview(t *testing.T) {
	surgery := claim.Item{
		ProcedureCode: "29881",
		DiagnosisCode: "M23.205",
		ServiceDate:   serviceDate,
		BilledAmount:  amt("75000.00"),
		Units:         1,
	}

	d, err := testEngine().Adjudicate(testClaim(surgery), testPolicy())
	require.NoError(t, err)

	assert.Equal(t, DecisionNeedsReview, d.Type)
	assert.GreaterOrEqual(t, d.Confidence, 0.70)
	assert.LessOrEqual(t, d.Confidence, 0.80)
	assert.Contains(t, d.Flags, FlagHighValueClaim)
	assert.True(t, d.RequiresManualReview)
	assert.Equal(t, "high-value claim", d.ReviewReason)
}

// An annual limit with $500 of headroom against a $2,000 item: $500 is
// payable, $1,500 is disallowed with a warning, and the decision is a
// partial approval.
func TestAdjudicateLimitPartialApproval(t *testing.T) {
	pol := testPolicy()
	pol.Coverages[0] = policy.Coverage{Category: "outpatient", AnnualLimit: amtPtr("50000.00")}
	pol.CategoryUsage = map[string]money.Amount{"outpatient": amt("49500.00")}

	d, err := testEngine().Adjudicate(testClaim(officeVisit("2000.00")), pol)
	require.NoError(t, err)

	assert.Equal(t, DecisionPartialApproval, d.Type)
	assert.Equal(t, "500.00", d.Breakdown.InsurerPayment.String())
	assert.Equal(t, "1500.00", d.Breakdown.Disallowed.String())

	warnings := d.WarningFindings()
	require.Len(t, warnings, 1)
	assert.Equal(t, CheckLimitExceeded, warnings[0].CheckName)
}

func TestAdjudicateIdempotent(t *testing.T) {
	e := testEngine()
	cl := testClaim(officeVisit("1200.00"), officeVisit("80.00"))
	pol := testPolicy()

	first, err := e.Adjudicate(cl, pol)
	require.NoError(t, err)
	second, err := e.Adjudicate(cl, pol)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestAdjudicateDecisionSerializesToPlainJSON(t *testing.T) {
	d, err := testEngine().Adjudicate(testClaim(officeVisit("150.00")), testPolicy())
	require.NoError(t, err)

	data, err := json.Marshal(d)
	require.NoError(t, err)

	var plain map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &plain))
	assert.Equal(t, "CLM-2024-001", plain["claim_id"])
	assert.Equal(t, "approved", plain["decision_type"])

	bd, ok := plain["financial_breakdown"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 150.0, bd["patient_responsibility"])
}

// Any critical finding forces rejection regardless of the financials.
func TestAdjudicateSeverityDominanceProperty(t *testing.T) {
	e := testEngine()
	rapid.Check(t, func(t *rapid.T) {
		cl, pol := drawClaimAndPolicy(t)
		// Expire the policy so a critical finding is always present.
		pol.ExpirationDate = pol.EffectiveDate

		d, err := e.Adjudicate(cl, pol)
		if err != nil {
			t.Fatalf("adjudicate: %v", err)
		}
		if len(d.CriticalFindings()) == 0 {
			t.Fatal("expected a critical finding")
		}
		if d.Type != DecisionRejected {
			t.Fatalf("critical finding classified as %s", d.Type)
		}
	})
}
