// Package claim defines the normalized claim model handed to the
// adjudication engine. Construction validation here covers caller-contract
// rules only; business-rule violations are the engine's job.
package claim

import (
	"errors"
	"fmt"
	"time"

	"github.com/clearclaim/go-ace/pkg/money"
)

// Contract violations surfaced at construction time.
var (
	ErrMissingClaimID      = errors.New("claim id is required")
	ErrMissingPolicyNumber = errors.New("policy number is required")
	ErrNoItems             = errors.New("claim has no items")
	ErrNegativeAmount      = errors.New("billed amount is negative")
	ErrNonPositiveUnits    = errors.New("unit count must be positive")
)

// Item is a single billed service on a claim. Treated as immutable once
// the claim enters adjudication.
type Item struct {
	ProcedureCode        string       `json:"procedure_code"`
	ProcedureDescription string       `json:"procedure_description,omitempty"`
	DiagnosisCode        string       `json:"diagnosis_code"`
	ServiceDate          time.Time    `json:"service_date"`
	ProviderName         string       `json:"provider_name,omitempty"`
	BilledAmount         money.Amount `json:"billed_amount"`
	Units                int          `json:"units"`
}

// Total returns the item's billed amount across all units.
func (i Item) Total() money.Amount {
	return i.BilledAmount.MulInt(i.Units)
}

// Claim is a normalized insurance claim. Upstream extraction (documents,
// free text) must fully resolve before a Claim is built; the engine never
// sees raw input.
type Claim struct {
	ClaimID      string `json:"claim_id"`
	PolicyNumber string `json:"policy_number"`

	ClaimantName string    `json:"claimant_name,omitempty"`
	ClaimantDOB  time.Time `json:"claimant_dob,omitempty"`
	ClaimantID   string    `json:"claimant_id,omitempty"`

	ClaimDate        time.Time `json:"claim_date,omitempty"`
	ServiceStartDate time.Time `json:"service_start_date"`
	ServiceEndDate   time.Time `json:"service_end_date,omitempty"`

	PrimaryDiagnosis   string   `json:"primary_diagnosis"`
	SecondaryDiagnoses []string `json:"secondary_diagnoses,omitempty"`

	Items       []Item       `json:"claim_items"`
	TotalBilled money.Amount `json:"total_billed_amount"`

	ProviderName string `json:"provider_name,omitempty"`
	ProviderNPI  string `json:"provider_npi,omitempty"`
	FacilityName string `json:"facility_name,omitempty"`

	// AuthorizationRef is the pre-authorization reference, when obtained.
	AuthorizationRef string `json:"authorization_ref,omitempty"`

	AdditionalNotes string `json:"additional_notes,omitempty"`
}

// Validate enforces the caller contract: structural problems here are
// programming errors on the submitter's side, not adjudication findings.
// A declared total that disagrees with the item sum is deliberately NOT
// checked here; that mismatch is a business finding.
func (c *Claim) Validate() error {
	if c.ClaimID == "" {
		return ErrMissingClaimID
	}
	if c.PolicyNumber == "" {
		return ErrMissingPolicyNumber
	}
	if len(c.Items) == 0 {
		return ErrNoItems
	}
	if c.TotalBilled.IsNegative() {
		return fmt.Errorf("claim %s: total: %w", c.ClaimID, ErrNegativeAmount)
	}
	for i, item := range c.Items {
		if item.BilledAmount.IsNegative() {
			return fmt.Errorf("claim %s item %d: %w", c.ClaimID, i, ErrNegativeAmount)
		}
		if item.Units <= 0 {
			return fmt.Errorf("claim %s item %d: %w", c.ClaimID, i, ErrNonPositiveUnits)
		}
	}
	return nil
}

// ItemsTotal returns the sum of item totals, the amount the declared
// TotalBilled is checked against.
func (c *Claim) ItemsTotal() money.Amount {
	sum := money.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.Total())
	}
	return sum
}
