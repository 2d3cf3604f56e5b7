package mapper

import (
	"github.com/clearclaim/go-ace/internal/adjudication"
	"github.com/clearclaim/go-ace/internal/fhir/r4"
	"github.com/clearclaim/go-ace/pkg/money"
)

// DecisionToClaimResponse renders an adjudication decision as a FHIR R4
// ClaimResponse. Item sequences are 1-based and follow the order of the
// submitted claim items.
func DecisionToClaimResponse(d *adjudication.Decision) *r4.ClaimResponse {
	resp := &r4.ClaimResponse{
		ResourceType: "ClaimResponse",
		ID:           d.DecisionID,
		Status:       r4.ClaimStatusActive,
		Use:          "claim",
		Created:      d.DecidedAt,
		Outcome:      outcomeFor(d.Type),
		Disposition:  d.Reasoning,
		Request:      &r4.Reference{Type: "Claim", Display: d.ClaimID},
		Identifier: []r4.Identifier{
			{Use: "official", Value: d.DecisionID},
		},
	}

	for i, f := range d.Findings {
		resp.ProcessNote = append(resp.ProcessNote, r4.ProcessNote{
			Number: i + 1,
			Type:   "display",
			Text:   f.CheckName + ": " + f.Message,
		})
	}

	for i, ib := range d.Breakdown.Items {
		item := r4.ResponseItem{
			ItemSequence: i + 1,
			Adjudication: []r4.Adjudication{
				component(r4.AdjudicationSubmitted, ib.Billed),
				component(r4.AdjudicationDeductible, ib.DeductibleApplied),
				component(r4.AdjudicationCopay, ib.CopayApplied),
				component(r4.AdjudicationCoinsurance, ib.CoinsuranceApplied),
				component(r4.AdjudicationBenefit, ib.InsurerPayment),
				component(r4.AdjudicationNoncovered, ib.Disallowed),
			},
		}
		resp.Item = append(resp.Item, item)
	}

	resp.Total = []r4.ResponseTotal{
		total(r4.AdjudicationSubmitted, d.Breakdown.TotalBilled),
		total(r4.AdjudicationBenefit, d.Breakdown.InsurerPayment),
		total(r4.AdjudicationNoncovered, d.Breakdown.Disallowed),
	}

	if !d.Breakdown.InsurerPayment.IsZero() {
		resp.Payment = &r4.ResponsePayment{
			Amount: moneyOf(d.Breakdown.InsurerPayment),
		}
	}

	return resp
}

// outcomeFor maps decision types onto the FHIR outcome value set. A
// rejection is still a completed adjudication; only claims parked for a
// human stay queued.
func outcomeFor(t adjudication.DecisionType) string {
	switch t {
	case adjudication.DecisionPartialApproval:
		return r4.OutcomePartial
	case adjudication.DecisionNeedsReview:
		return r4.OutcomeQueued
	default:
		return r4.OutcomeComplete
	}
}

func component(category string, amount money.Amount) r4.Adjudication {
	return r4.Adjudication{
		Category: r4.CodeableConcept{
			Coding: []r4.Coding{{System: r4.SystemAdjudicated, Code: category}},
		},
		Amount: &r4.Money{Value: amount.Float64(), Currency: r4.SystemCurrencyUSD},
	}
}

func total(category string, amount money.Amount) r4.ResponseTotal {
	return r4.ResponseTotal{
		Category: r4.CodeableConcept{
			Coding: []r4.Coding{{System: r4.SystemAdjudicated, Code: category}},
		},
		Amount: moneyOf(amount),
	}
}

func moneyOf(a money.Amount) r4.Money {
	return r4.Money{Value: a.Float64(), Currency: r4.SystemCurrencyUSD}
}
