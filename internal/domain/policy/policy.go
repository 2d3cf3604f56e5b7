// Package policy defines the insurance policy catalog model and its
// pgx-backed store. A Policy is read-only during adjudication and safe to
// share across concurrent calls.
package policy

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clearclaim/go-ace/pkg/money"
)

// Contract violations surfaced at construction time.
var (
	ErrMissingPolicyNumber = errors.New("policy number is required")
	ErrNegativeAmount      = errors.New("policy amount is negative")
	ErrInvalidCoinsurance  = errors.New("coinsurance percentage out of range")
)

// Coverage describes the terms for one service category.
type Coverage struct {
	Category string `json:"category"`
	// AnnualLimit is nil when the category is unlimited.
	AnnualLimit       *money.Amount `json:"annual_limit,omitempty"`
	CopayAmount       money.Amount  `json:"copay_amount"`
	CoinsurancePct    float64       `json:"coinsurance_percentage"`
	DeductibleApplies bool          `json:"deductible_applies"`
	RequiresPreauth   bool          `json:"requires_preauth"`
}

// Exclusion lists diagnosis/procedure codes the policy will not pay for.
type Exclusion struct {
	Type          string   `json:"exclusion_type"`
	Description   string   `json:"description,omitempty"`
	ExcludedCodes []string `json:"excluded_codes"`
}

// Policy is an insurance policy with its financial terms and ordered
// coverage categories. Coverage order matters: when a category lookup could
// match more than one entry, the first declared entry wins.
type Policy struct {
	PolicyNumber     string `json:"policy_number"`
	PolicyHolderName string `json:"policy_holder_name,omitempty"`

	EffectiveDate  time.Time `json:"effective_date"`
	ExpirationDate time.Time `json:"expiration_date"`

	AnnualDeductible money.Amount `json:"annual_deductible"`
	DeductibleMet    money.Amount `json:"deductible_met"`
	OutOfPocketMax   money.Amount `json:"out_of_pocket_max"`
	OutOfPocketMet   money.Amount `json:"out_of_pocket_met"`

	Coverages  []Coverage  `json:"coverages"`
	Exclusions []Exclusion `json:"exclusions,omitempty"`

	PolicyType  string `json:"policy_type,omitempty"`
	NetworkType string `json:"network_type,omitempty"`

	// CategoryUsage is prior annual usage (insurer-paid) per category,
	// consulted by the annual-limit step.
	CategoryUsage map[string]money.Amount `json:"category_usage,omitempty"`
}

// Validate enforces the caller contract. Anomalies the engine can work
// around (deductible_met above annual_deductible, out-of-pocket met above
// the max) are NOT errors; the rule validator flags them and the
// calculator proceeds with a clamped reading.
func (p *Policy) Validate() error {
	if p.PolicyNumber == "" {
		return ErrMissingPolicyNumber
	}
	for _, a := range []money.Amount{p.AnnualDeductible, p.DeductibleMet, p.OutOfPocketMax, p.OutOfPocketMet} {
		if a.IsNegative() {
			return fmt.Errorf("policy %s: %w", p.PolicyNumber, ErrNegativeAmount)
		}
	}
	for _, cov := range p.Coverages {
		if cov.CoinsurancePct < 0 || cov.CoinsurancePct > 100 {
			return fmt.Errorf("policy %s coverage %q: %w", p.PolicyNumber, cov.Category, ErrInvalidCoinsurance)
		}
		if cov.CopayAmount.IsNegative() || (cov.AnnualLimit != nil && cov.AnnualLimit.IsNegative()) {
			return fmt.Errorf("policy %s coverage %q: %w", p.PolicyNumber, cov.Category, ErrNegativeAmount)
		}
	}
	return nil
}

// IsActiveOn reports whether the policy covers the given service date.
func (p *Policy) IsActiveOn(date time.Time) bool {
	return !date.Before(p.EffectiveDate) && !date.After(p.ExpirationDate)
}

// CoverageFor returns the first declared coverage whose category matches,
// case-insensitively. The bool is false when no category matches.
func (p *Policy) CoverageFor(category string) (*Coverage, bool) {
	for i := range p.Coverages {
		if strings.EqualFold(p.Coverages[i].Category, category) {
			return &p.Coverages[i], true
		}
	}
	return nil, false
}

// IsCodeExcluded reports whether a diagnosis or procedure code appears in
// any exclusion, along with the exclusion that names it.
func (p *Policy) IsCodeExcluded(code string) (*Exclusion, bool) {
	if code == "" {
		return nil, false
	}
	for i := range p.Exclusions {
		for _, excluded := range p.Exclusions[i].ExcludedCodes {
			if excluded == code {
				return &p.Exclusions[i], true
			}
		}
	}
	return nil, false
}

// PriorUsage returns the recorded annual usage for a category.
func (p *Policy) PriorUsage(category string) money.Amount {
	if p.CategoryUsage == nil {
		return money.Zero
	}
	for cat, used := range p.CategoryUsage {
		if strings.EqualFold(cat, category) {
			return used
		}
	}
	return money.Zero
}
