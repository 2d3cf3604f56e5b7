package adjudication

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/clearclaim/go-ace/internal/domain/claim"
	"github.com/clearclaim/go-ace/internal/domain/policy"
	"github.com/clearclaim/go-ace/pkg/money"
)

func computeFor(cl *claim.Claim, pol *policy.Policy) Breakdown {
	matcher := NewMatcher(nil)
	matches := make([]Match, len(cl.Items))
	for i, item := range cl.Items {
		matches[i] = matcher.Match(item, pol)
	}
	return NewCalculator().Compute(cl, pol, matches)
}

func TestComputeDeductibleConsumesBilled(t *testing.T) {
	bd := computeFor(testClaim(officeVisit("150.00")), testPolicy())

	require.Len(t, bd.Items, 1)
	ib := bd.Items[0]
	assert.Equal(t, "150.00", ib.DeductibleApplied.String())
	// Nothing remains after the deductible, so no copay is charged.
	assert.Equal(t, "0.00", ib.CopayApplied.String())
	assert.Equal(t, "0.00", ib.CoinsuranceApplied.String())
	assert.Equal(t, "0.00", ib.InsurerPayment.String())
	assert.Equal(t, "150.00", ib.PatientShare.String())
}

func TestComputeDeductibleExhausted(t *testing.T) {
	pol := testPolicy()
	pol.DeductibleMet = amt("1000.00")

	bd := computeFor(testClaim(officeVisit("150.00")), pol)

	ib := bd.Items[0]
	assert.Equal(t, "0.00", ib.DeductibleApplied.String())
	assert.Equal(t, "25.00", ib.CopayApplied.String())
	assert.Equal(t, "25.00", ib.CoinsuranceApplied.String()) // 20% of 125
	assert.Equal(t, "100.00", ib.InsurerPayment.String())
	assert.Equal(t, "50.00", ib.PatientShare.String())
}

func TestComputeDeductiblePartiallyConsumed(t *testing.T) {
	bd := computeFor(testClaim(officeVisit("1200.00")), testPolicy())

	ib := bd.Items[0]
	assert.Equal(t, "1000.00", ib.DeductibleApplied.String())
	assert.Equal(t, "25.00", ib.CopayApplied.String())
	assert.Equal(t, "35.00", ib.CoinsuranceApplied.String()) // 20% of 175
	assert.Equal(t, "140.00", ib.InsurerPayment.String())
	assert.Equal(t, "1060.00", ib.PatientShare.String())
}

func TestComputeDeductibleRunsAcrossItems(t *testing.T) {
	bd := computeFor(testClaim(officeVisit("600.00"), officeVisit("600.00")), testPolicy())

	first, second := bd.Items[0], bd.Items[1]
	assert.Equal(t, "600.00", first.DeductibleApplied.String())
	assert.Equal(t, "0.00", first.InsurerPayment.String())

	assert.Equal(t, "400.00", second.DeductibleApplied.String())
	assert.Equal(t, "25.00", second.CopayApplied.String())
	assert.Equal(t, "35.00", second.CoinsuranceApplied.String())
	assert.Equal(t, "140.00", second.InsurerPayment.String())

	assert.Equal(t, "1000.00", bd.DeductibleApplied.String())
}

func TestComputeExcludedProcedure(t *testing.T) {
	item := officeVisit("500.00")
	item.ProcedureCode = "15775" // excluded cosmetic code, still CPT-shaped

	bd := computeFor(testClaim(item), testPolicy())

	ib := bd.Items[0]
	assert.True(t, ib.Excluded)
	assert.Equal(t, "500.00", ib.Disallowed.String())
	assert.Equal(t, "0.00", ib.InsurerPayment.String())
	assert.Equal(t, "0.00", ib.PatientShare.String())
}

func TestComputeNoCoverageSentinel(t *testing.T) {
	item := officeVisit("300.00")
	item.ProcedureCode = "" // unclassifiable

	bd := computeFor(testClaim(item), testPolicy())

	ib := bd.Items[0]
	assert.True(t, ib.CoverageMissing)
	assert.True(t, ib.FullyDisallowed())
	assert.Equal(t, "300.00", ib.Disallowed.String())
}

func TestComputeAnnualLimitCapsInsurer(t *testing.T) {
	pol := testPolicy()
	pol.Coverages[0] = policy.Coverage{
		Category:    "outpatient",
		AnnualLimit: amtPtr("50000.00"),
	}
	pol.CategoryUsage = map[string]money.Amount{"outpatient": amt("49500.00")}

	bd := computeFor(testClaim(officeVisit("2000.00")), pol)

	ib := bd.Items[0]
	assert.True(t, ib.LimitExceeded)
	assert.Equal(t, "500.00", ib.InsurerPayment.String())
	assert.Equal(t, "1500.00", ib.Disallowed.String())
	assert.Equal(t, "0.00", ib.PatientShare.String())
	assert.Equal(t, "50000.00", bd.CategoryUsage["outpatient"].String())
}

func TestComputeLimitRunsAcrossItems(t *testing.T) {
	pol := testPolicy()
	pol.Coverages[0] = policy.Coverage{
		Category:    "outpatient",
		AnnualLimit: amtPtr("50000.00"),
	}
	pol.CategoryUsage = map[string]money.Amount{"outpatient": amt("49500.00")}

	bd := computeFor(testClaim(officeVisit("400.00"), officeVisit("300.00")), pol)

	assert.Equal(t, "400.00", bd.Items[0].InsurerPayment.String())
	assert.False(t, bd.Items[0].LimitExceeded)
	assert.Equal(t, "100.00", bd.Items[1].InsurerPayment.String())
	assert.Equal(t, "200.00", bd.Items[1].Disallowed.String())
	assert.True(t, bd.Items[1].LimitExceeded)
}

func TestComputeOutOfPocketCapShiftsToInsurer(t *testing.T) {
	pol := testPolicy()
	pol.DeductibleMet = amt("1000.00")
	pol.OutOfPocketMet = amt("4900.00") // $100 of patient exposure left

	bd := computeFor(testClaim(officeVisit("1000.00")), pol)

	ib := bd.Items[0]
	// Provisional patient side: copay 25 + coinsurance 195 = 220;
	// 120 shifts to the insurer, coinsurance gives way first.
	assert.Equal(t, "25.00", ib.CopayApplied.String())
	assert.Equal(t, "75.00", ib.CoinsuranceApplied.String())
	assert.Equal(t, "100.00", ib.PatientShare.String())
	assert.Equal(t, "900.00", ib.InsurerPayment.String())
}

func TestComputeOutOfPocketCapReachesDeductible(t *testing.T) {
	pol := testPolicy()
	pol.OutOfPocketMet = amt("4990.00") // $10 left

	bd := computeFor(testClaim(officeVisit("150.00")), pol)

	ib := bd.Items[0]
	assert.Equal(t, "10.00", ib.DeductibleApplied.String())
	assert.Equal(t, "10.00", ib.PatientShare.String())
	assert.Equal(t, "140.00", ib.InsurerPayment.String())
}

func TestComputeClampsMetAboveCeiling(t *testing.T) {
	pol := testPolicy()
	pol.DeductibleMet = amt("2500.00") // above the $1,000 deductible

	bd := computeFor(testClaim(officeVisit("150.00")), pol)

	// Calculation proceeds as if the deductible were fully met.
	ib := bd.Items[0]
	assert.Equal(t, "0.00", ib.DeductibleApplied.String())
	assert.Equal(t, "25.00", ib.CopayApplied.String())
}

// drawClaimAndPolicy produces a random but well-formed claim/policy pair
// mixing covered, uncovered, and excluded codes.
func drawClaimAndPolicy(t *rapid.T) (*claim.Claim, *policy.Policy) {
	pol := testPolicy()
	pol.AnnualDeductible = money.FromCents(rapid.Int64Range(0, 300_000).Draw(t, "deductible"))
	pol.DeductibleMet = money.FromCents(rapid.Int64Range(0, 450_000).Draw(t, "deductible_met"))
	pol.OutOfPocketMax = money.FromCents(rapid.Int64Range(0, 1_000_000).Draw(t, "oop_max"))
	pol.OutOfPocketMet = money.FromCents(rapid.Int64Range(0, 1_200_000).Draw(t, "oop_met"))
	pol.Coverages[0].CoinsurancePct = float64(rapid.IntRange(0, 100).Draw(t, "coinsurance"))
	pol.Coverages[0].CopayAmount = money.FromCents(rapid.Int64Range(0, 10_000).Draw(t, "copay"))
	limit := rapid.Int64Range(0, 5_000_000).Draw(t, "annual_limit")
	limitAmt := money.FromCents(limit)
	pol.Coverages[0].AnnualLimit = &limitAmt
	pol.CategoryUsage = map[string]money.Amount{
		"outpatient": money.FromCents(rapid.Int64Range(0, 5_000_000).Draw(t, "prior_usage")),
	}

	codes := []string{"99213", "99214", "15775", "", "29881", "71045"}
	n := rapid.IntRange(1, 8).Draw(t, "items")
	items := make([]claim.Item, 0, n)
	for i := 0; i < n; i++ {
		item := officeVisit("0.00")
		item.ProcedureCode = rapid.SampledFrom(codes).Draw(t, fmt.Sprintf("code_%d", i))
		item.BilledAmount = money.FromCents(rapid.Int64Range(0, 500_000).Draw(t, fmt.Sprintf("billed_%d", i)))
		item.Units = rapid.IntRange(1, 3).Draw(t, fmt.Sprintf("units_%d", i))
		items = append(items, item)
	}
	return testClaim(items...), pol
}

func TestComputeConservationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cl, pol := drawClaimAndPolicy(t)
		bd := computeFor(cl, pol)

		for i, ib := range bd.Items {
			billed, sum, ok := conservationHolds(ib)
			if !ok {
				t.Fatalf("item %d: billed %s != parts %s", i, billed, sum)
			}
			for _, a := range []money.Amount{ib.DeductibleApplied, ib.CopayApplied, ib.CoinsuranceApplied, ib.InsurerPayment, ib.Disallowed, ib.PatientShare} {
				if a.IsNegative() {
					t.Fatalf("item %d: negative component in %+v", i, ib)
				}
			}
		}

		parts := bd.DeductibleApplied.
			Add(bd.CopayApplied).
			Add(bd.CoinsuranceApplied).
			Add(bd.InsurerPayment).
			Add(bd.Disallowed)
		if !bd.TotalBilled.Equal(parts) {
			t.Fatalf("aggregate: billed %s != parts %s", bd.TotalBilled, parts)
		}
	})
}

func TestComputeOutOfPocketCapProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cl, pol := drawClaimAndPolicy(t)
		bd := computeFor(cl, pol)

		oopMet := money.Min(pol.OutOfPocketMet, pol.OutOfPocketMax)
		exposure := pol.OutOfPocketMax.Sub(oopMet)
		if bd.PatientShare.GreaterThan(exposure) {
			t.Fatalf("patient share %s exceeds remaining exposure %s", bd.PatientShare, exposure)
		}
	})
}

func TestComputeDeductibleMetMonotonicityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cl, pol := drawClaimAndPolicy(t)

		lower := rapid.Int64Range(0, 300_000).Draw(t, "met_lower")
		delta := rapid.Int64Range(1, 100_000).Draw(t, "met_delta")

		polLow := *pol
		polLow.DeductibleMet = money.FromCents(lower)
		polHigh := *pol
		polHigh.DeductibleMet = money.FromCents(lower + delta)

		low := computeFor(cl, &polLow)
		high := computeFor(cl, &polHigh)

		// More deductible already met can only move cost off the patient.
		if high.PatientShare.GreaterThan(low.PatientShare) {
			t.Fatalf("patient share rose from %s to %s when deductible_met rose", low.PatientShare, high.PatientShare)
		}
		if high.InsurerPayment.LessThan(low.InsurerPayment) {
			t.Fatalf("insurer payment fell from %s to %s when deductible_met rose", low.InsurerPayment, high.InsurerPayment)
		}
	})
}
