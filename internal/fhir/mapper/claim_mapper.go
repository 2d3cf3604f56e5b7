// Package mapper converts between FHIR R4 claim resources and the
// engine's normalized claim and decision models.
package mapper

import (
	"errors"
	"fmt"
	"time"

	"github.com/clearclaim/go-ace/internal/domain/claim"
	"github.com/clearclaim/go-ace/internal/fhir/r4"
	"github.com/clearclaim/go-ace/pkg/money"
)

// Errors for claims that cannot be mapped.
var (
	ErrWrongResourceType = errors.New("resource is not a Claim")
	ErrNoInsurance       = errors.New("claim carries no focal insurance")
)

const fhirDateLayout = "2006-01-02"

// ClaimToDomain converts a FHIR R4 Claim into the engine's claim model.
// Mapping failures are caller-contract errors: the submitter sent a
// resource the engine cannot adjudicate.
func ClaimToDomain(fc *r4.Claim) (*claim.Claim, error) {
	if fc.ResourceType != "Claim" {
		return nil, fmt.Errorf("%w: got %q", ErrWrongResourceType, fc.ResourceType)
	}

	policyNumber := fc.PolicyNumber()
	if policyNumber == "" {
		return nil, ErrNoInsurance
	}

	cl := &claim.Claim{
		ClaimID:          claimID(fc),
		PolicyNumber:     policyNumber,
		ClaimDate:        fc.Created,
		AuthorizationRef: fc.PreAuthRef(),
	}

	if fc.Patient != nil {
		cl.ClaimantName = fc.Patient.Display
		if fc.Patient.Identifier != nil {
			cl.ClaimantID = fc.Patient.Identifier.Value
		}
	}
	if fc.Provider != nil {
		cl.ProviderName = fc.Provider.Display
		if fc.Provider.Identifier != nil && fc.Provider.Identifier.System == r4.SystemNPI {
			cl.ProviderNPI = fc.Provider.Identifier.Value
		}
	}
	if fc.Facility != nil {
		cl.FacilityName = fc.Facility.Display
	}
	if fc.BillablePeriod != nil {
		cl.ServiceStartDate = fc.BillablePeriod.Start
		cl.ServiceEndDate = fc.BillablePeriod.End
	}

	cl.PrimaryDiagnosis = fc.DiagnosisCode(1)
	for _, d := range fc.Diagnosis {
		if d.Sequence == 1 {
			continue
		}
		if code := d.DiagnosisCodeableConcept.PrimaryCode(); code != "" {
			cl.SecondaryDiagnoses = append(cl.SecondaryDiagnoses, code)
		}
	}

	for i, fi := range fc.Item {
		item, err := itemToDomain(fc, fi)
		if err != nil {
			return nil, fmt.Errorf("claim %s item %d: %w", cl.ClaimID, i, err)
		}
		cl.Items = append(cl.Items, item)
	}

	if fc.Total != nil {
		cl.TotalBilled = money.FromFloat(fc.Total.Value)
	} else {
		cl.TotalBilled = cl.ItemsTotal()
	}

	for _, si := range fc.SupportingInfo {
		if si.ValueString != "" {
			if cl.AdditionalNotes != "" {
				cl.AdditionalNotes += "\n"
			}
			cl.AdditionalNotes += si.ValueString
		}
	}

	if cl.ServiceStartDate.IsZero() && len(cl.Items) > 0 {
		cl.ServiceStartDate = cl.Items[0].ServiceDate
	}

	if err := cl.Validate(); err != nil {
		return nil, err
	}
	return cl, nil
}

func itemToDomain(fc *r4.Claim, fi r4.ClaimItem) (claim.Item, error) {
	item := claim.Item{
		ProcedureCode:        fi.ProductOrService.PrimaryCode(),
		ProcedureDescription: fi.ProductOrService.PrimaryDisplay(),
		Units:                1,
	}

	if len(fi.DiagnosisSequence) > 0 {
		item.DiagnosisCode = fc.DiagnosisCode(fi.DiagnosisSequence[0])
	}

	switch {
	case fi.ServicedDate != "":
		d, err := time.Parse(fhirDateLayout, fi.ServicedDate)
		if err != nil {
			return claim.Item{}, fmt.Errorf("parse servicedDate %q: %w", fi.ServicedDate, err)
		}
		item.ServiceDate = d
	case fi.ServicedPeriod != nil:
		item.ServiceDate = fi.ServicedPeriod.Start
	}

	switch {
	case fi.UnitPrice != nil:
		item.BilledAmount = money.FromFloat(fi.UnitPrice.Value)
		if fi.Quantity != nil && fi.Quantity.Value > 0 {
			item.Units = int(fi.Quantity.Value)
		}
	case fi.Net != nil:
		// Net covers all units; collapse to a single unit so the billed
		// total stays penny-exact.
		item.BilledAmount = money.FromFloat(fi.Net.Value)
	}

	return item, nil
}

func claimID(fc *r4.Claim) string {
	for _, id := range fc.Identifier {
		if id.Value != "" {
			return id.Value
		}
	}
	return fc.ID
}
