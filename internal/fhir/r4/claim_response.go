// Package r4 provides FHIR R4 data structures for claim adjudication.
package r4

import "time"

// ClaimResponse represents a FHIR R4 ClaimResponse resource.
type ClaimResponse struct {
	ResourceType string           `json:"resourceType"`
	ID           string           `json:"id,omitempty"`
	Meta         *Meta            `json:"meta,omitempty"`
	Identifier   []Identifier     `json:"identifier,omitempty"`
	Status       string           `json:"status"`
	Type         *CodeableConcept `json:"type,omitempty"`
	Use          string           `json:"use,omitempty"`
	Patient      *Reference       `json:"patient,omitempty"`
	Created      time.Time        `json:"created"`
	Insurer      *Reference       `json:"insurer,omitempty"`
	Requestor    *Reference       `json:"requestor,omitempty"`
	Request      *Reference       `json:"request,omitempty"`
	Outcome      string           `json:"outcome"` // queued | complete | error | partial
	Disposition  string           `json:"disposition,omitempty"`
	PreAuthRef   string           `json:"preAuthRef,omitempty"`
	Item         []ResponseItem   `json:"item,omitempty"`
	Total        []ResponseTotal  `json:"total,omitempty"`
	Payment      *ResponsePayment `json:"payment,omitempty"`
	ProcessNote  []ProcessNote    `json:"processNote,omitempty"`
	Error        []ResponseError  `json:"error,omitempty"`
}

// ResponseItem carries per-item adjudication results.
type ResponseItem struct {
	ItemSequence int            `json:"itemSequence"`
	NoteNumber   []int          `json:"noteNumber,omitempty"`
	Adjudication []Adjudication `json:"adjudication"`
}

// Adjudication is a single adjudication component for an item.
type Adjudication struct {
	Category CodeableConcept  `json:"category"`
	Reason   *CodeableConcept `json:"reason,omitempty"`
	Amount   *Money           `json:"amount,omitempty"`
	Value    *float64         `json:"value,omitempty"`
}

// ResponseTotal is a claim-level adjudication total.
type ResponseTotal struct {
	Category CodeableConcept `json:"category"`
	Amount   Money           `json:"amount"`
}

// ResponsePayment describes the payment the insurer will make.
type ResponsePayment struct {
	Type   *CodeableConcept `json:"type,omitempty"`
	Date   string           `json:"date,omitempty"`
	Amount Money            `json:"amount"`
}

// ProcessNote is a displayable note generated during adjudication.
type ProcessNote struct {
	Number int    `json:"number,omitempty"`
	Type   string `json:"type,omitempty"` // display | print | printoper
	Text   string `json:"text"`
}

// ResponseError describes a processing error on the response.
type ResponseError struct {
	ItemSequence int             `json:"itemSequence,omitempty"`
	Code         CodeableConcept `json:"code"`
}
