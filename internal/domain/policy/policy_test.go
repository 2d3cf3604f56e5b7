package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearclaim/go-ace/pkg/money"
)

func validPolicy() *Policy {
	limit := money.MustParse("50000.00")
	return &Policy{
		PolicyNumber:     "POL-12345",
		EffectiveDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpirationDate:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		AnnualDeductible: money.MustParse("1000.00"),
		OutOfPocketMax:   money.MustParse("5000.00"),
		Coverages: []Coverage{
			{
				Category:          "outpatient",
				AnnualLimit:       &limit,
				CopayAmount:       money.MustParse("25.00"),
				CoinsurancePct:    20,
				DeductibleApplies: true,
			},
			{Category: "emergency", CopayAmount: money.MustParse("250.00")},
		},
		Exclusions: []Exclusion{
			{Type: "cosmetic", ExcludedCodes: []string{"15830", "Z41.1"}},
		},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validPolicy().Validate())
}

func TestValidateContractViolations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Policy)
		wantErr error
	}{
		{"missing policy number", func(p *Policy) { p.PolicyNumber = "" }, ErrMissingPolicyNumber},
		{"negative deductible", func(p *Policy) {
			p.AnnualDeductible = money.Zero.Sub(money.MustParse("1.00"))
		}, ErrNegativeAmount},
		{"coinsurance above 100", func(p *Policy) { p.Coverages[0].CoinsurancePct = 120 }, ErrInvalidCoinsurance},
		{"negative coinsurance", func(p *Policy) { p.Coverages[0].CoinsurancePct = -5 }, ErrInvalidCoinsurance},
		{"negative copay", func(p *Policy) {
			p.Coverages[0].CopayAmount = money.Zero.Sub(money.MustParse("1.00"))
		}, ErrNegativeAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPolicy()
			tt.mutate(p)
			assert.ErrorIs(t, p.Validate(), tt.wantErr)
		})
	}
}

func TestValidateToleratesMetAboveLimit(t *testing.T) {
	// Clamped by the calculator, flagged by the validator, not an error.
	p := validPolicy()
	p.DeductibleMet = money.MustParse("2000.00")
	p.OutOfPocketMet = money.MustParse("9000.00")
	assert.NoError(t, p.Validate())
}

func TestIsActiveOn(t *testing.T) {
	p := validPolicy()

	assert.True(t, p.IsActiveOn(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)))
	// Boundary days are inside the coverage window.
	assert.True(t, p.IsActiveOn(p.EffectiveDate))
	assert.True(t, p.IsActiveOn(p.ExpirationDate))

	assert.False(t, p.IsActiveOn(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.IsActiveOn(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestCoverageFor(t *testing.T) {
	p := validPolicy()

	cov, ok := p.CoverageFor("OUTPATIENT")
	require.True(t, ok)
	assert.Equal(t, "outpatient", cov.Category)
	assert.Equal(t, float64(20), cov.CoinsurancePct)

	_, ok = p.CoverageFor("dental")
	assert.False(t, ok)
}

func TestCoverageForFirstDeclaredWins(t *testing.T) {
	p := validPolicy()
	p.Coverages = append(p.Coverages, Coverage{Category: "Outpatient", CoinsurancePct: 50})

	cov, ok := p.CoverageFor("outpatient")
	require.True(t, ok)
	assert.Equal(t, float64(20), cov.CoinsurancePct)
}

func TestIsCodeExcluded(t *testing.T) {
	p := validPolicy()

	excl, ok := p.IsCodeExcluded("15830")
	require.True(t, ok)
	assert.Equal(t, "cosmetic", excl.Type)

	_, ok = p.IsCodeExcluded("99213")
	assert.False(t, ok)

	_, ok = p.IsCodeExcluded("")
	assert.False(t, ok)
}

func TestPriorUsage(t *testing.T) {
	p := validPolicy()
	p.CategoryUsage = map[string]money.Amount{"Outpatient": money.MustParse("1234.56")}

	assert.Equal(t, "1234.56", p.PriorUsage("outpatient").String())
	assert.True(t, p.PriorUsage("emergency").IsZero())
}
