package adjudication

import (
	"fmt"
	"strings"
)

// buildReasoning renders the deterministic explanation for a decision from
// the finding set. Free-text generation is an external concern; this text
// is the reproducible baseline every decision carries.
func buildReasoning(decisionType DecisionType, findings []Finding) string {
	criticals := filterFindings(findings, SeverityCritical)

	switch decisionType {
	case DecisionApproved:
		return "The claim has passed all validation checks and meets policy requirements. " +
			"The billed services are covered and within coverage limits. The claim is approved for processing."

	case DecisionRejected:
		names := make([]string, 0, len(criticals))
		for _, f := range criticals {
			names = append(names, f.CheckName)
		}
		return fmt.Sprintf("The claim has been rejected due to critical issues: %s. "+
			"These issues prevent the claim from being processed and must be resolved before resubmission.",
			strings.Join(names, ", "))

	case DecisionNeedsReview:
		return "The claim requires manual review due to multiple warnings or potential issues. " +
			"While no critical errors were found, the complexity of the claim necessitates human oversight " +
			"before a final decision can be made."

	default: // partial approval
		return "The claim has been partially approved. Some services are covered while others " +
			"were disallowed and may require additional review or documentation."
	}
}

// buildRecommendations derives claimant-facing recommendations from the
// decision type plus issue-specific additions, capped at five.
func buildRecommendations(decisionType DecisionType, findings []Finding) []string {
	var recs []string

	switch decisionType {
	case DecisionRejected:
		recs = append(recs,
			"Review and correct all critical issues identified in the validation results",
			"Ensure all required documentation is complete and accurate",
			"Verify policy coverage and eligibility before resubmitting")
	case DecisionNeedsReview:
		recs = append(recs,
			"Provide additional documentation to support the claim",
			"Contact the insurance provider for clarification on coverage",
			"Consider appealing if you believe the claim should be covered")
	case DecisionApproved, DecisionPartialApproval:
		recs = append(recs,
			"Review the approved amount and patient responsibility",
			"Keep all documentation for your records",
			"Payment will be processed according to policy terms")
	}

	for _, f := range findings {
		if f.Severity == SeverityInfo {
			continue
		}
		switch f.CheckName {
		case CheckDiagnosisFormat:
			recs = append(recs, "Verify diagnosis codes with the healthcare provider")
		case CheckCoverageExists:
			recs = append(recs, "Confirm procedure codes match the services rendered")
		case CheckPreauth:
			recs = append(recs, "Obtain required pre-authorization before services")
		}
	}

	return dedupe(recs, 5)
}

// buildNextSteps derives the claimant's next steps per decision type.
func buildNextSteps(decisionType DecisionType) []string {
	switch decisionType {
	case DecisionRejected:
		return []string{
			"Correct identified issues and resubmit claim",
			"Contact provider for missing information",
			"Appeal decision if you disagree with rejection",
		}
	case DecisionNeedsReview:
		return []string{
			"Wait for manual review by claims specialist",
			"Provide additional documentation if requested",
			"Expected review time: 5-7 business days",
		}
	default:
		return []string{
			"Payment will be processed within 10 business days",
			"You will receive an Explanation of Benefits (EOB)",
			"Pay any patient responsibility amounts to provider",
		}
	}
}

// buildMissingInformation lists checks whose message indicates something
// absent from the submission.
func buildMissingInformation(findings []Finding) []string {
	var missing []string
	for _, f := range findings {
		if f.Severity == SeverityInfo {
			continue
		}
		if strings.Contains(strings.ToLower(f.Message), "missing") ||
			strings.Contains(strings.ToLower(f.Message), "no authorization") {
			missing = append(missing, f.CheckName)
		}
	}
	return dedupe(missing, len(missing))
}

// dedupe keeps first occurrences in order, capped at max.
func dedupe(in []string, max int) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == max {
			break
		}
	}
	return out
}
