package adjudication

import (
	"time"

	"github.com/clearclaim/go-ace/internal/domain/claim"
	"github.com/clearclaim/go-ace/internal/domain/policy"
	"github.com/clearclaim/go-ace/pkg/money"
)

var (
	serviceDate = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	fixedNow    = time.Date(2024, 6, 16, 12, 0, 0, 0, time.UTC)
)

func amt(s string) money.Amount { return money.MustParse(s) }

func amtPtr(s string) *money.Amount {
	a := money.MustParse(s)
	return &a
}

// testPolicy is a PPO active for 2024 with a $1,000 deductible (none met),
// $5,000 out-of-pocket max, outpatient and surgery coverage, and an
// exclusion on cosmetic procedure 15775.
func testPolicy() *policy.Policy {
	return &policy.Policy{
		PolicyNumber:     "POL-12345",
		PolicyHolderName: "John Doe",
		EffectiveDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpirationDate:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		AnnualDeductible: amt("1000.00"),
		DeductibleMet:    amt("0.00"),
		OutOfPocketMax:   amt("5000.00"),
		OutOfPocketMet:   amt("0.00"),
		Coverages: []policy.Coverage{
			{
				Category:          "outpatient",
				AnnualLimit:       amtPtr("50000.00"),
				CopayAmount:       amt("25.00"),
				CoinsurancePct:    20,
				DeductibleApplies: true,
			},
			{
				Category:          "surgery",
				CopayAmount:       amt("0.00"),
				CoinsurancePct:    20,
				DeductibleApplies: true,
			},
			{
				Category:          "imaging",
				AnnualLimit:       amtPtr("10000.00"),
				CopayAmount:       amt("50.00"),
				CoinsurancePct:    10,
				DeductibleApplies: false,
				RequiresPreauth:   true,
			},
		},
		Exclusions: []policy.Exclusion{
			{Type: "cosmetic", Description: "Cosmetic procedures", ExcludedCodes: []string{"15775"}},
		},
		PolicyType:  "PPO",
		NetworkType: "In-Network",
	}
}

func officeVisit(billed string) claim.Item {
	return claim.Item{
		ProcedureCode:        "99213",
		ProcedureDescription: "Office visit, established patient",
		DiagnosisCode:        "M54.5",
		ServiceDate:          serviceDate,
		BilledAmount:         money.MustParse(billed),
		Units:                1,
	}
}

func testClaim(items ...claim.Item) *claim.Claim {
	total := money.Zero
	for _, item := range items {
		total = total.Add(item.Total())
	}
	return &claim.Claim{
		ClaimID:          "CLM-2024-001",
		PolicyNumber:     "POL-12345",
		ClaimantName:     "John Doe",
		ClaimantID:       "MEM-67890",
		ServiceStartDate: serviceDate,
		ServiceEndDate:   serviceDate,
		PrimaryDiagnosis: "M54.5",
		Items:            items,
		TotalBilled:      total,
		ProviderName:     "Dr. Jane Smith",
		ProviderNPI:      "1234567890",
	}
}

func testEngine() *Engine {
	return NewEngine(DefaultConfig(), WithClock(func() time.Time { return fixedNow }))
}

// conservationHolds checks the penny-exact identity on an item and returns
// the two sides for the failure message.
func conservationHolds(ib ItemBreakdown) (money.Amount, money.Amount, bool) {
	sum := ib.DeductibleApplied.
		Add(ib.CopayApplied).
		Add(ib.CoinsuranceApplied).
		Add(ib.InsurerPayment).
		Add(ib.Disallowed)
	return ib.Billed, sum, ib.Billed.Equal(sum)
}
