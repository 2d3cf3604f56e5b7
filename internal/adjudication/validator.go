package adjudication

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/clearclaim/go-ace/internal/domain/claim"
	"github.com/clearclaim/go-ace/internal/domain/policy"
	"github.com/clearclaim/go-ace/pkg/money"
)

// Check names, stable across releases; downstream reporting keys on them.
const (
	CheckPolicyActive     = "policy_active"
	CheckCoverageExists   = "coverage_exists"
	CheckExclusion        = "exclusion"
	CheckPreauth          = "preauthorization"
	CheckLimitExceeded    = "limit_exceeded"
	CheckLimitProximity   = "limit_proximity"
	CheckBilledTotal      = "billed_total_consistency"
	CheckHighValue        = "high_value"
	CheckDiagnosisFormat  = "diagnosis_code_format"
	CheckAmountReasonable = "amount_reasonable"
	CheckDataIntegrity    = "data_integrity"
)

// billedTotalTolerance is the rounding slack allowed between the declared
// claim total and the item sum.
var billedTotalTolerance = money.FromCents(1)

// Validator runs the fixed battery of policy-compliance checks. Every
// check always runs; a failure never short-circuits the rest, so the
// classifier and downstream explanation always see the complete picture.
type Validator struct {
	cfg Config
}

// NewValidator creates a validator with the given thresholds.
func NewValidator(cfg Config) *Validator {
	return &Validator{cfg: cfg}
}

// Validate evaluates the battery in its fixed order and returns findings
// in discovery order. Checks that pass produce no finding.
func (v *Validator) Validate(cl *claim.Claim, pol *policy.Policy, matches []Match, bd Breakdown) []Finding {
	var findings []Finding
	add := func(f ...Finding) { findings = append(findings, f...) }

	add(v.checkPolicyActive(cl, pol)...)
	add(v.checkCoverageExists(cl, matches)...)
	add(v.checkExclusions(cl, pol)...)
	add(v.checkPreauth(cl, matches)...)
	add(v.checkLimits(pol, bd)...)
	add(v.checkBilledTotal(cl)...)
	add(v.checkHighValue(bd)...)
	add(v.checkDiagnosisFormat(cl)...)
	add(v.checkAmountReasonable(bd)...)
	add(v.checkDataIntegrity(pol)...)

	return findings
}

func (v *Validator) checkPolicyActive(cl *claim.Claim, pol *policy.Policy) []Finding {
	serviceDate := cl.ServiceStartDate
	if serviceDate.IsZero() && len(cl.Items) > 0 {
		serviceDate = cl.Items[0].ServiceDate
	}
	if pol.IsActiveOn(serviceDate) {
		return nil
	}
	return []Finding{{
		CheckName: CheckPolicyActive,
		Severity:  SeverityCritical,
		Message:   "policy not active on service date",
		Details: map[string]interface{}{
			"effective_date":  pol.EffectiveDate.Format(time.DateOnly),
			"expiration_date": pol.ExpirationDate.Format(time.DateOnly),
			"service_date":    serviceDate.Format(time.DateOnly),
		},
	}}
}

func (v *Validator) checkCoverageExists(cl *claim.Claim, matches []Match) []Finding {
	var findings []Finding
	for i, m := range matches {
		if m.Matched {
			continue
		}
		item := cl.Items[i]
		msg := "service not covered"
		details := map[string]interface{}{
			"procedure_code": item.ProcedureCode,
			"item_index":     i,
		}
		if m.Category != "" {
			msg = fmt.Sprintf("service not covered: no %q coverage on policy", m.Category)
			details["category"] = m.Category
		}
		findings = append(findings, Finding{
			CheckName: CheckCoverageExists,
			Severity:  SeverityCritical,
			Message:   msg,
			Details:   details,
		})
	}
	return findings
}

func (v *Validator) checkExclusions(cl *claim.Claim, pol *policy.Policy) []Finding {
	var findings []Finding

	exclusionFinding := func(code, kind string, excl *policy.Exclusion) Finding {
		return Finding{
			CheckName: CheckExclusion,
			Severity:  SeverityCritical,
			Message:   fmt.Sprintf("%s code %s is excluded under the policy", kind, code),
			Details: map[string]interface{}{
				"code":           code,
				"exclusion_type": excl.Type,
			},
		}
	}

	if excl, ok := pol.IsCodeExcluded(cl.PrimaryDiagnosis); ok {
		findings = append(findings, exclusionFinding(cl.PrimaryDiagnosis, "diagnosis", excl))
	}

	seen := map[string]bool{cl.PrimaryDiagnosis: true}
	for _, item := range cl.Items {
		for _, code := range []string{item.ProcedureCode, item.DiagnosisCode} {
			if code == "" || seen[code] {
				continue
			}
			seen[code] = true
			if excl, ok := pol.IsCodeExcluded(code); ok {
				findings = append(findings, exclusionFinding(code, "service", excl))
			}
		}
	}
	return findings
}

// Missing pre-authorization is reviewable, not an automatic rejection,
// hence warning severity.
func (v *Validator) checkPreauth(cl *claim.Claim, matches []Match) []Finding {
	if cl.AuthorizationRef != "" {
		return nil
	}
	var categories []string
	for _, m := range matches {
		if m.Matched && m.Coverage.RequiresPreauth {
			categories = append(categories, m.Category)
		}
	}
	if len(categories) == 0 {
		return nil
	}
	return []Finding{{
		CheckName: CheckPreauth,
		Severity:  SeverityWarning,
		Message:   "pre-authorization required but no authorization reference on claim",
		Details:   map[string]interface{}{"categories": categories},
	}}
}

func (v *Validator) checkLimits(pol *policy.Policy, bd Breakdown) []Finding {
	var findings []Finding

	exceeded := make(map[string]bool)
	for _, ib := range bd.Items {
		if !ib.LimitExceeded || exceeded[strings.ToLower(ib.Category)] {
			continue
		}
		exceeded[strings.ToLower(ib.Category)] = true
		findings = append(findings, Finding{
			CheckName: CheckLimitExceeded,
			Severity:  SeverityWarning,
			Message:   fmt.Sprintf("annual limit exceeded for %s; excess disallowed", ib.Category),
			Details:   map[string]interface{}{"category": ib.Category},
		})
	}

	for _, cov := range pol.Coverages {
		if cov.AnnualLimit == nil {
			continue
		}
		key := strings.ToLower(cov.Category)
		if exceeded[key] {
			continue
		}
		projected, ok := bd.CategoryUsage[key]
		if !ok {
			continue
		}
		threshold := cov.AnnualLimit.Percent(100 - v.cfg.LimitProximityPct)
		if projected.Cmp(threshold) >= 0 && projected.Cmp(*cov.AnnualLimit) <= 0 {
			findings = append(findings, Finding{
				CheckName: CheckLimitProximity,
				Severity:  SeverityInfo,
				Message:   fmt.Sprintf("projected %s usage within %.0f%% of the annual limit", cov.Category, v.cfg.LimitProximityPct),
				Details: map[string]interface{}{
					"category":        cov.Category,
					"projected_usage": projected.String(),
					"annual_limit":    cov.AnnualLimit.String(),
				},
			})
		}
	}
	return findings
}

func (v *Validator) checkBilledTotal(cl *claim.Claim) []Finding {
	itemsTotal := cl.ItemsTotal()
	diff := cl.TotalBilled.Sub(itemsTotal)
	if diff.IsNegative() {
		diff = money.Zero.Sub(diff)
	}
	if diff.Cmp(billedTotalTolerance) <= 0 {
		return nil
	}
	return []Finding{{
		CheckName: CheckBilledTotal,
		Severity:  SeverityWarning,
		Message:   "declared claim total does not match the sum of item amounts",
		Details: map[string]interface{}{
			"declared_total": cl.TotalBilled.String(),
			"items_total":    itemsTotal.String(),
		},
	}}
}

func (v *Validator) checkHighValue(bd Breakdown) []Finding {
	if !bd.TotalBilled.GreaterThan(v.cfg.HighValueThreshold) {
		return nil
	}
	return []Finding{{
		CheckName: CheckHighValue,
		Severity:  SeverityWarning,
		Message:   "aggregate billed amount exceeds the high-value threshold",
		Details: map[string]interface{}{
			"total_billed": bd.TotalBilled.String(),
			"threshold":    v.cfg.HighValueThreshold.String(),
		},
	}}
}

func (v *Validator) checkDiagnosisFormat(cl *claim.Claim) []Finding {
	code := cl.PrimaryDiagnosis
	if validICD10Shape(code) {
		return nil
	}
	return []Finding{{
		CheckName: CheckDiagnosisFormat,
		Severity:  SeverityWarning,
		Message:   "primary diagnosis code missing or not in ICD-10 format",
		Details:   map[string]interface{}{"primary_diagnosis": code},
	}}
}

// validICD10Shape is the lightweight shape check used at intake: a letter
// followed by at least two more characters. Full code-set validation
// belongs to the upstream extraction service.
func validICD10Shape(code string) bool {
	if len(code) < 3 {
		return false
	}
	return unicode.IsLetter(rune(code[0]))
}

func (v *Validator) checkAmountReasonable(bd Breakdown) []Finding {
	if bd.TotalBilled.LessThan(v.cfg.UnreasonableAmount) {
		return nil
	}
	return []Finding{{
		CheckName: CheckAmountReasonable,
		Severity:  SeverityWarning,
		Message:   "claim total is outside the reasonable range",
		Details: map[string]interface{}{
			"total_billed": bd.TotalBilled.String(),
			"ceiling":      v.cfg.UnreasonableAmount.String(),
		},
	}}
}

// Met amounts above their ceilings are a data-integrity anomaly: the
// calculator proceeds with a clamped reading, and the anomaly is flagged
// here rather than silently absorbed.
func (v *Validator) checkDataIntegrity(pol *policy.Policy) []Finding {
	var findings []Finding
	if pol.DeductibleMet.GreaterThan(pol.AnnualDeductible) {
		findings = append(findings, Finding{
			CheckName: CheckDataIntegrity,
			Severity:  SeverityWarning,
			Message:   "deductible met exceeds the annual deductible; clamped for calculation",
			Details: map[string]interface{}{
				"deductible_met":    pol.DeductibleMet.String(),
				"annual_deductible": pol.AnnualDeductible.String(),
			},
		})
	}
	if pol.OutOfPocketMet.GreaterThan(pol.OutOfPocketMax) {
		findings = append(findings, Finding{
			CheckName: CheckDataIntegrity,
			Severity:  SeverityWarning,
			Message:   "out-of-pocket met exceeds the out-of-pocket maximum; clamped for calculation",
			Details: map[string]interface{}{
				"out_of_pocket_met": pol.OutOfPocketMet.String(),
				"out_of_pocket_max": pol.OutOfPocketMax.String(),
			},
		})
	}
	return findings
}
