package adjudication

import (
	"strings"

	"github.com/clearclaim/go-ace/internal/domain/claim"
	"github.com/clearclaim/go-ace/internal/domain/policy"
	"github.com/clearclaim/go-ace/pkg/money"
)

// Calculator produces the financial breakdown for a claim. Deductible,
// out-of-pocket, and per-category limit state is threaded through explicit
// accumulators local to one Compute call, so concurrent adjudications never
// contaminate each other.
type Calculator struct{}

// NewCalculator creates a calculator.
func NewCalculator() *Calculator { return &Calculator{} }

// calcState carries the running policy-level accumulators across items
// within a single claim.
type calcState struct {
	remainingDeductible money.Amount
	oopRemaining        money.Amount
	categoryUsage       map[string]money.Amount
}

// newCalcState derives the starting accumulators from the policy.
// Met amounts above their ceilings are clamped for calculation purposes
// only; the rule validator flags the anomaly separately.
func newCalcState(pol *policy.Policy) *calcState {
	deductibleMet := money.Min(pol.DeductibleMet, pol.AnnualDeductible)
	oopMet := money.Min(pol.OutOfPocketMet, pol.OutOfPocketMax)

	usage := make(map[string]money.Amount, len(pol.CategoryUsage))
	for cat, used := range pol.CategoryUsage {
		usage[strings.ToLower(cat)] = used
	}

	return &calcState{
		remainingDeductible: pol.AnnualDeductible.Sub(deductibleMet),
		oopRemaining:        pol.OutOfPocketMax.Sub(oopMet),
		categoryUsage:       usage,
	}
}

// Compute walks the claim items in order, applying per item:
// exclusion, deductible, copay, coinsurance, annual limit, out-of-pocket
// cap. The conservation invariant
// billed = deductible + copay + coinsurance + insurer + disallowed
// holds penny-exact per item and in aggregate.
func (c *Calculator) Compute(cl *claim.Claim, pol *policy.Policy, matches []Match) Breakdown {
	state := newCalcState(pol)

	bd := Breakdown{Items: make([]ItemBreakdown, 0, len(cl.Items))}
	for i, item := range cl.Items {
		ib := c.computeItem(item, pol, matches[i], state)
		bd.Items = append(bd.Items, ib)

		bd.TotalBilled = bd.TotalBilled.Add(ib.Billed)
		bd.DeductibleApplied = bd.DeductibleApplied.Add(ib.DeductibleApplied)
		bd.CopayApplied = bd.CopayApplied.Add(ib.CopayApplied)
		bd.CoinsuranceApplied = bd.CoinsuranceApplied.Add(ib.CoinsuranceApplied)
		bd.Disallowed = bd.Disallowed.Add(ib.Disallowed)
		bd.PatientShare = bd.PatientShare.Add(ib.PatientShare)
		bd.InsurerPayment = bd.InsurerPayment.Add(ib.InsurerPayment)
	}

	bd.CategoryUsage = make(map[string]money.Amount, len(state.categoryUsage))
	for cat, used := range state.categoryUsage {
		bd.CategoryUsage[cat] = used
	}
	return bd
}

func (c *Calculator) computeItem(item claim.Item, pol *policy.Policy, match Match, state *calcState) ItemBreakdown {
	ib := ItemBreakdown{
		ProcedureCode: item.ProcedureCode,
		Category:      match.Category,
		Billed:        item.Total(),
	}

	// Exclusions and failed coverage lookups disallow the whole item.
	if !match.Matched {
		ib.CoverageMissing = true
		ib.Disallowed = ib.Billed
		return ib
	}
	if _, excluded := pol.IsCodeExcluded(item.ProcedureCode); excluded {
		ib.Excluded = true
		ib.Disallowed = ib.Billed
		return ib
	}
	if _, excluded := pol.IsCodeExcluded(item.DiagnosisCode); excluded {
		ib.Excluded = true
		ib.Disallowed = ib.Billed
		return ib
	}

	cov := match.Coverage
	remaining := ib.Billed

	// Deductible.
	if cov.DeductibleApplies {
		d := money.Min(state.remainingDeductible, remaining)
		ib.DeductibleApplied = d
		state.remainingDeductible = state.remainingDeductible.Sub(d)
		remaining = remaining.Sub(d)
	}

	// Copay is a flat per-item charge on whatever the deductible left.
	copay := money.Min(cov.CopayAmount, remaining)
	ib.CopayApplied = copay
	remaining = remaining.Sub(copay)

	// Coinsurance on the remainder, rounded half-even to the cent.
	coins := remaining.Percent(cov.CoinsurancePct)
	ib.CoinsuranceApplied = coins
	insurer := remaining.Sub(coins)

	// Annual category limit caps the insurer-paid portion; the excess is
	// disallowed, never shifted to the patient.
	if cov.AnnualLimit != nil {
		key := strings.ToLower(match.Category)
		limitLeft := cov.AnnualLimit.Sub(state.categoryUsage[key])
		if limitLeft.IsNegative() {
			limitLeft = money.Zero
		}
		if insurer.GreaterThan(limitLeft) {
			ib.Disallowed = insurer.Sub(limitLeft)
			ib.LimitExceeded = true
			insurer = limitLeft
		}
	}

	// Out-of-pocket cap: patient-side amounts past the cap shift to the
	// insurer. Coinsurance gives way first, then copay, then deductible.
	patient := ib.DeductibleApplied.Add(ib.CopayApplied).Add(ib.CoinsuranceApplied)
	if patient.GreaterThan(state.oopRemaining) {
		shift := patient.Sub(state.oopRemaining)
		insurer = insurer.Add(shift)

		take := money.Min(shift, ib.CoinsuranceApplied)
		ib.CoinsuranceApplied = ib.CoinsuranceApplied.Sub(take)
		shift = shift.Sub(take)

		take = money.Min(shift, ib.CopayApplied)
		ib.CopayApplied = ib.CopayApplied.Sub(take)
		shift = shift.Sub(take)

		take = money.Min(shift, ib.DeductibleApplied)
		ib.DeductibleApplied = ib.DeductibleApplied.Sub(take)
		// Deductible the patient never paid was not actually met.
		state.remainingDeductible = state.remainingDeductible.Add(take)

		patient = state.oopRemaining
	}
	state.oopRemaining = state.oopRemaining.Sub(patient)

	ib.PatientShare = patient
	ib.InsurerPayment = insurer

	key := strings.ToLower(match.Category)
	state.categoryUsage[key] = state.categoryUsage[key].Add(insurer)
	return ib
}
