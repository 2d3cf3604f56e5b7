package adjudication

// Classifier turns the finding set and financial breakdown into one of the
// four terminal decision types. It is a pure function of its inputs; the
// tie-break rules live here and nowhere else.
type Classifier struct {
	cfg Config
}

// NewClassifier creates a classifier with the given confidence policy.
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classification is the classifier's verdict before narrative assembly.
type Classification struct {
	Type                 DecisionType
	Confidence           float64
	Flags                []string
	RequiresManualReview bool
	ReviewReason         string
}

// Classify applies the decision state machine:
//
//	any critical finding        -> rejected
//	high value or many warnings -> needs_review
//	some items disallowed       -> partial_approval
//	otherwise                   -> approved
//
// A claim that is both partially disallowed and review-worthy resolves to
// needs_review: a human should see it.
func (c *Classifier) Classify(findings []Finding, bd Breakdown) Classification {
	criticals := countSeverity(findings, SeverityCritical)
	warnings := countSeverity(findings, SeverityWarning)

	highValue := bd.TotalBilled.GreaterThan(c.cfg.HighValueThreshold)
	// disallowed counts items with any disallowed portion; payable counts
	// items where something remained payable. A limit-capped item can be
	// both.
	disallowed, clean, payable := 0, 0, 0
	for _, ib := range bd.Items {
		if ib.Disallowed.IsZero() {
			clean++
		} else {
			disallowed++
		}
		if ib.Disallowed.LessThan(ib.Billed) || ib.Billed.IsZero() {
			payable++
		}
	}

	var cls Classification
	switch {
	case criticals > 0:
		cls.Type = DecisionRejected
		cls.Confidence = c.cfg.Confidence.Rejected

	case highValue || warnings > c.cfg.NeedsReviewWarningCount:
		cls.Type = DecisionNeedsReview
		cls.Confidence = c.reviewConfidence(warnings)

	case disallowed > 0 && payable > 0:
		cls.Type = DecisionPartialApproval
		cls.Confidence = c.partialConfidence(clean, disallowed)

	case disallowed > 0:
		// Everything disallowed without a critical finding (annual limit
		// caps across the board): nothing is payable, but rejection would
		// overstate certainty. Route to review.
		cls.Type = DecisionNeedsReview
		cls.Confidence = c.reviewConfidence(warnings)

	default:
		cls.Type = DecisionApproved
		cls.Confidence = c.cfg.Confidence.ApprovedBase
		if warnings == 0 {
			cls.Confidence += c.cfg.Confidence.ApprovedCleanBonus
		}
		if cls.Confidence > c.cfg.Confidence.ApprovedCap {
			cls.Confidence = c.cfg.Confidence.ApprovedCap
		}
	}

	if criticals > 0 {
		cls.Flags = append(cls.Flags, FlagCriticalIssuesFound)
	}
	if highValue {
		cls.Flags = append(cls.Flags, FlagHighValueClaim)
	}

	switch {
	case criticals > 0:
		cls.RequiresManualReview = true
		cls.ReviewReason = "critical policy violations found"
	case highValue:
		cls.RequiresManualReview = true
		cls.ReviewReason = "high-value claim"
	case warnings > c.cfg.NeedsReviewWarningCount:
		cls.RequiresManualReview = true
		cls.ReviewReason = "multiple warnings require human oversight"
	case cls.Type == DecisionNeedsReview:
		cls.RequiresManualReview = true
		cls.ReviewReason = "no payable items"
	}
	if cls.RequiresManualReview {
		cls.Flags = append(cls.Flags, FlagManualReviewRequired)
	}

	return cls
}

// reviewConfidence starts at the review base and loses a fixed penalty per
// warning beyond the configured count, floored at the review floor.
func (c *Classifier) reviewConfidence(warnings int) float64 {
	conf := c.cfg.Confidence.ReviewBase
	if extra := warnings - c.cfg.Confidence.ReviewPenaltyAfter; extra > 0 {
		conf -= c.cfg.Confidence.ReviewWarningPenalty * float64(extra)
	}
	if conf < c.cfg.Confidence.ReviewFloor {
		conf = c.cfg.Confidence.ReviewFloor
	}
	return conf
}

// partialConfidence is the item-weighted average: fully processed items
// contribute the approved confidence, disallowed items the disallowed one.
func (c *Classifier) partialConfidence(clean, disallowed int) float64 {
	total := float64(clean + disallowed)
	return (c.cfg.Confidence.PartialApprovedItem*float64(clean) +
		c.cfg.Confidence.PartialDisallowedItem*float64(disallowed)) / total
}
