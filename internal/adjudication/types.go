// Package adjudication implements the policy adjudication engine: the
// deterministic rule evaluation and financial calculation that turns a
// normalized (claim, policy) pair into a decision. The package is purely
// computational; it performs no I/O and holds no state across calls.
package adjudication

import (
	"time"

	"github.com/clearclaim/go-ace/pkg/money"
)

// Severity classifies a validation finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Finding is the structured result of one compliance check. Findings are
// immutable and kept in discovery order.
type Finding struct {
	CheckName string                 `json:"check_name"`
	Severity  Severity               `json:"severity"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// ItemBreakdown is the financial split for a single claim item.
// Invariant: Billed = DeductibleApplied + CopayApplied + CoinsuranceApplied
// + InsurerPayment + Disallowed, penny-exact.
type ItemBreakdown struct {
	ProcedureCode string `json:"procedure_code"`
	Category      string `json:"category,omitempty"`

	Billed             money.Amount `json:"billed"`
	DeductibleApplied  money.Amount `json:"deductible_applied"`
	CopayApplied       money.Amount `json:"copay_applied"`
	CoinsuranceApplied money.Amount `json:"coinsurance_applied"`
	Disallowed         money.Amount `json:"disallowed"`
	PatientShare       money.Amount `json:"patient_responsibility"`
	InsurerPayment     money.Amount `json:"insurer_payment"`

	// Why the item (or part of it) was disallowed.
	CoverageMissing bool `json:"coverage_missing,omitempty"`
	Excluded        bool `json:"excluded,omitempty"`
	LimitExceeded   bool `json:"limit_exceeded,omitempty"`
}

// FullyDisallowed reports whether nothing on the item was payable.
func (ib ItemBreakdown) FullyDisallowed() bool {
	return !ib.Billed.IsZero() && ib.Disallowed.Equal(ib.Billed)
}

// Breakdown aggregates per-item splits for the whole claim. The same
// conservation invariant holds for the totals.
type Breakdown struct {
	Items []ItemBreakdown `json:"items"`

	TotalBilled        money.Amount `json:"total_billed"`
	DeductibleApplied  money.Amount `json:"deductible_applied"`
	CopayApplied       money.Amount `json:"copay_applied"`
	CoinsuranceApplied money.Amount `json:"coinsurance_applied"`
	Disallowed         money.Amount `json:"disallowed"`
	PatientShare       money.Amount `json:"patient_responsibility"`
	InsurerPayment     money.Amount `json:"insurer_payment"`

	// CategoryUsage is projected annual usage per category after this
	// claim (prior usage plus this claim's insurer payments).
	CategoryUsage map[string]money.Amount `json:"category_usage,omitempty"`
}

// DecisionType is the terminal classification of an adjudication call.
type DecisionType string

const (
	DecisionApproved        DecisionType = "approved"
	DecisionRejected        DecisionType = "rejected"
	DecisionPartialApproval DecisionType = "partial_approval"
	DecisionNeedsReview     DecisionType = "needs_review"
)

// Flags attached to a decision.
const (
	FlagManualReviewRequired = "MANUAL_REVIEW_REQUIRED"
	FlagHighValueClaim       = "HIGH_VALUE_CLAIM"
	FlagCriticalIssuesFound  = "CRITICAL_ISSUES_FOUND"
)

// Decision is the terminal artifact of one adjudication call. It is
// created once and never mutated; all fields serialize to plain JSON so
// downstream renderers need no engine types.
type Decision struct {
	DecisionID   string    `json:"decision_id"`
	ClaimID      string    `json:"claim_id"`
	PolicyNumber string    `json:"policy_number"`
	DecidedAt    time.Time `json:"decided_at"`

	Type       DecisionType `json:"decision_type"`
	Confidence float64      `json:"confidence_score"`

	Findings  []Finding `json:"findings"`
	Breakdown Breakdown `json:"financial_breakdown"`

	Reasoning          string   `json:"reasoning"`
	Flags              []string `json:"flags,omitempty"`
	MissingInformation []string `json:"missing_information,omitempty"`
	Recommendations    []string `json:"recommendations,omitempty"`
	NextSteps          []string `json:"next_steps,omitempty"`

	RequiresManualReview bool   `json:"requires_manual_review"`
	ReviewReason         string `json:"review_reason,omitempty"`
}

// CriticalFindings returns the findings with critical severity.
func (d *Decision) CriticalFindings() []Finding {
	return filterFindings(d.Findings, SeverityCritical)
}

// WarningFindings returns the findings with warning severity.
func (d *Decision) WarningFindings() []Finding {
	return filterFindings(d.Findings, SeverityWarning)
}

func filterFindings(findings []Finding, sev Severity) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Severity == sev {
			out = append(out, f)
		}
	}
	return out
}

func countSeverity(findings []Finding, sev Severity) int {
	n := 0
	for _, f := range findings {
		if f.Severity == sev {
			n++
		}
	}
	return n
}
