package adjudication

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clearclaim/go-ace/pkg/money"
)

func critical() Finding {
	return Finding{CheckName: CheckExclusion, Severity: SeverityCritical, Message: "excluded"}
}

func warning() Finding {
	return Finding{CheckName: CheckPreauth, Severity: SeverityWarning, Message: "no preauth"}
}

func breakdownOf(items ...ItemBreakdown) Breakdown {
	bd := Breakdown{Items: items}
	for _, ib := range items {
		bd.TotalBilled = bd.TotalBilled.Add(ib.Billed)
		bd.Disallowed = bd.Disallowed.Add(ib.Disallowed)
		bd.InsurerPayment = bd.InsurerPayment.Add(ib.InsurerPayment)
	}
	return bd
}

func paidItem(billed string) ItemBreakdown {
	return ItemBreakdown{Billed: amt(billed), InsurerPayment: amt(billed)}
}

func disallowedItem(billed string) ItemBreakdown {
	return ItemBreakdown{Billed: amt(billed), Disallowed: amt(billed)}
}

func TestClassifyRejectedOnAnyCritical(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	cls := c.Classify([]Finding{critical()}, breakdownOf(paidItem("100.00")))

	assert.Equal(t, DecisionRejected, cls.Type)
	assert.InDelta(t, 0.95, cls.Confidence, 1e-9)
	assert.True(t, cls.RequiresManualReview)
	assert.Contains(t, cls.Flags, FlagCriticalIssuesFound)
}

// Rejection dominates everything else, including a breakdown that would
// otherwise be payable or review-worthy.
func TestClassifyCriticalDominatesHighValue(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	cls := c.Classify(
		[]Finding{critical(), warning(), warning(), warning(), warning()},
		breakdownOf(paidItem("75000.00"), disallowedItem("100.00")),
	)

	assert.Equal(t, DecisionRejected, cls.Type)
}

func TestClassifyNeedsReviewOnHighValue(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	cls := c.Classify([]Finding{warning()}, breakdownOf(paidItem("75000.00")))

	assert.Equal(t, DecisionNeedsReview, cls.Type)
	assert.InDelta(t, 0.80, cls.Confidence, 1e-9)
	assert.Contains(t, cls.Flags, FlagHighValueClaim)
	assert.Contains(t, cls.Flags, FlagManualReviewRequired)
}

func TestClassifyNeedsReviewOnWarningCount(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	findings := []Finding{warning(), warning(), warning(), warning()}
	cls := c.Classify(findings, breakdownOf(paidItem("500.00")))

	assert.Equal(t, DecisionNeedsReview, cls.Type)
	assert.InDelta(t, 0.80, cls.Confidence, 1e-9)
}

func TestClassifyReviewConfidenceDecaysWithWarnings(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	bd := breakdownOf(paidItem("500.00"))

	warningsOf := func(n int) []Finding {
		fs := make([]Finding, n)
		for i := range fs {
			fs[i] = warning()
		}
		return fs
	}

	cases := []struct {
		warnings int
		want     float64
	}{
		{4, 0.80},
		{5, 0.78},
		{6, 0.76},
		{9, 0.70},
		{20, 0.70}, // floored
	}
	for _, tc := range cases {
		cls := c.Classify(warningsOf(tc.warnings), bd)
		assert.Equal(t, DecisionNeedsReview, cls.Type)
		assert.InDelta(t, tc.want, cls.Confidence, 1e-9, "%d warnings", tc.warnings)
	}
}

func TestClassifyPartialApproval(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	cls := c.Classify(nil, breakdownOf(paidItem("300.00"), disallowedItem("100.00")))

	assert.Equal(t, DecisionPartialApproval, cls.Type)
	// One clean item at 0.95, one disallowed at 0.60.
	assert.InDelta(t, 0.775, cls.Confidence, 1e-9)
	assert.False(t, cls.RequiresManualReview)
}

// A single limit-capped item is partially payable: partial approval, with
// the item counting on the disallowed side of the confidence average.
func TestClassifyPartiallyDisallowedSingleItem(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	capped := ItemBreakdown{
		Billed:         amt("2000.00"),
		InsurerPayment: amt("500.00"),
		Disallowed:     amt("1500.00"),
		LimitExceeded:  true,
	}
	cls := c.Classify([]Finding{warning()}, breakdownOf(capped))

	assert.Equal(t, DecisionPartialApproval, cls.Type)
	assert.InDelta(t, 0.60, cls.Confidence, 1e-9)
}

// Review takes precedence over partial approval: a claim that is both
// partially disallowed and review-worthy goes to a human.
func TestClassifyReviewBeatsPartial(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	cls := c.Classify(
		[]Finding{warning(), warning(), warning(), warning()},
		breakdownOf(paidItem("300.00"), disallowedItem("100.00")),
	)

	assert.Equal(t, DecisionNeedsReview, cls.Type)
}

func TestClassifyAllItemsDisallowedWithoutCritical(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	cls := c.Classify([]Finding{warning()}, breakdownOf(disallowedItem("100.00"), disallowedItem("50.00")))

	assert.Equal(t, DecisionNeedsReview, cls.Type)
	assert.True(t, cls.RequiresManualReview)
	assert.Equal(t, "no payable items", cls.ReviewReason)
}

func TestClassifyApproved(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	clean := c.Classify(nil, breakdownOf(paidItem("500.00")))
	assert.Equal(t, DecisionApproved, clean.Type)
	assert.InDelta(t, 0.95, clean.Confidence, 1e-9) // 0.90 + clean bonus
	assert.False(t, clean.RequiresManualReview)
	assert.Empty(t, clean.Flags)

	withWarnings := c.Classify([]Finding{warning(), warning()}, breakdownOf(paidItem("500.00")))
	assert.Equal(t, DecisionApproved, withWarnings.Type)
	assert.InDelta(t, 0.90, withWarnings.Confidence, 1e-9)
}

func TestClassifyInfoFindingsDoNotCount(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	infos := []Finding{
		{CheckName: CheckLimitProximity, Severity: SeverityInfo},
		{CheckName: CheckLimitProximity, Severity: SeverityInfo},
		{CheckName: CheckLimitProximity, Severity: SeverityInfo},
		{CheckName: CheckLimitProximity, Severity: SeverityInfo},
	}
	cls := c.Classify(infos, breakdownOf(paidItem("500.00")))

	assert.Equal(t, DecisionApproved, cls.Type)
	assert.InDelta(t, 0.95, cls.Confidence, 1e-9)
}

func TestClassifyZeroBilledClaim(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	cls := c.Classify(nil, breakdownOf(ItemBreakdown{Billed: money.Zero}))
	assert.Equal(t, DecisionApproved, cls.Type)
}
