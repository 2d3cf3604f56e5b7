// Package r4 provides FHIR R4 data structures for claim adjudication.
package r4

import "time"

// Claim represents a FHIR R4 Claim resource.
type Claim struct {
	ResourceType   string           `json:"resourceType"`
	ID             string           `json:"id,omitempty"`
	Meta           *Meta            `json:"meta,omitempty"`
	Identifier     []Identifier     `json:"identifier,omitempty"`
	Status         string           `json:"status"`
	Type           *CodeableConcept `json:"type,omitempty"`
	Use            string           `json:"use,omitempty"` // claim | preauthorization | predetermination
	Patient        *Reference       `json:"patient,omitempty"`
	BillablePeriod *Period          `json:"billablePeriod,omitempty"`
	Created        time.Time        `json:"created,omitempty"`
	Provider       *Reference       `json:"provider,omitempty"`
	Priority       *CodeableConcept `json:"priority,omitempty"`
	Facility       *Reference       `json:"facility,omitempty"`
	Diagnosis      []ClaimDiagnosis `json:"diagnosis,omitempty"`
	Insurance      []ClaimInsurance `json:"insurance"`
	Item           []ClaimItem      `json:"item,omitempty"`
	Total          *Money           `json:"total,omitempty"`
	SupportingInfo []SupportingInfo `json:"supportingInfo,omitempty"`
}

// ClaimDiagnosis represents a diagnosis entry on a claim.
type ClaimDiagnosis struct {
	Sequence                 int              `json:"sequence"`
	DiagnosisCodeableConcept *CodeableConcept `json:"diagnosisCodeableConcept,omitempty"`
	DiagnosisReference       *Reference       `json:"diagnosisReference,omitempty"`
	Type                     []CodeableConcept `json:"type,omitempty"`
}

// ClaimInsurance identifies the coverage the claim is submitted against.
type ClaimInsurance struct {
	Sequence            int        `json:"sequence"`
	Focal               bool       `json:"focal"`
	Identifier          *Identifier `json:"identifier,omitempty"`
	Coverage            *Reference `json:"coverage,omitempty"`
	PreAuthRef          []string   `json:"preAuthRef,omitempty"`
	BusinessArrangement string     `json:"businessArrangement,omitempty"`
}

// ClaimItem represents a billed line item.
type ClaimItem struct {
	Sequence          int              `json:"sequence"`
	DiagnosisSequence []int            `json:"diagnosisSequence,omitempty"`
	ProductOrService  *CodeableConcept `json:"productOrService,omitempty"`
	ServicedDate      string           `json:"servicedDate,omitempty"`
	ServicedPeriod    *Period          `json:"servicedPeriod,omitempty"`
	Quantity          *Quantity        `json:"quantity,omitempty"`
	UnitPrice         *Money           `json:"unitPrice,omitempty"`
	Net               *Money           `json:"net,omitempty"`
}

// SupportingInfo carries additional claim context such as clinical notes.
type SupportingInfo struct {
	Sequence    int              `json:"sequence"`
	Category    *CodeableConcept `json:"category,omitempty"`
	Code        *CodeableConcept `json:"code,omitempty"`
	ValueString string           `json:"valueString,omitempty"`
}

// PrimaryCode returns the first coding's code from a CodeableConcept,
// falling back to the text field.
func (c *CodeableConcept) PrimaryCode() string {
	if c == nil {
		return ""
	}
	if len(c.Coding) > 0 {
		return c.Coding[0].Code
	}
	return c.Text
}

// PrimaryDisplay returns the first coding's display text.
func (c *CodeableConcept) PrimaryDisplay() string {
	if c == nil {
		return ""
	}
	for _, coding := range c.Coding {
		if coding.Display != "" {
			return coding.Display
		}
	}
	return c.Text
}

// PolicyNumber returns the identifier of the focal insurance entry.
func (c *Claim) PolicyNumber() string {
	for _, ins := range c.Insurance {
		if !ins.Focal {
			continue
		}
		if ins.Identifier != nil && ins.Identifier.Value != "" {
			return ins.Identifier.Value
		}
		if ins.Coverage != nil && ins.Coverage.Identifier != nil {
			return ins.Coverage.Identifier.Value
		}
	}
	return ""
}

// PreAuthRef returns the first preauthorization reference on the claim.
func (c *Claim) PreAuthRef() string {
	for _, ins := range c.Insurance {
		if len(ins.PreAuthRef) > 0 {
			return ins.PreAuthRef[0]
		}
	}
	return ""
}

// DiagnosisCode returns the diagnosis code for a 1-based sequence number.
func (c *Claim) DiagnosisCode(sequence int) string {
	for _, d := range c.Diagnosis {
		if d.Sequence == sequence {
			return d.DiagnosisCodeableConcept.PrimaryCode()
		}
	}
	return ""
}
