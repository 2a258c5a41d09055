package fhir

// Resource type discriminators carried in every emitted resource.
const (
	ResourceTypeBundle              = "Bundle"
	ResourceTypeCondition           = "Condition"
	ResourceTypeMedicationStatement = "MedicationStatement"
	ResourceTypeProcedure           = "Procedure"
)

// Condition represents a FHIR R5 Condition resource.  Extracted condition
// entities map onto it with a fixed active/confirmed status pair.
type Condition struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id,omitempty"`
	Meta         *Meta  `json:"meta,omitempty"`

	ClinicalStatus     *CodeableConcept `json:"clinicalStatus,omitempty"`
	VerificationStatus *CodeableConcept `json:"verificationStatus,omitempty"`

	// Code carries the extracted mention as free text, without codings.
	Code *CodeableConcept `json:"code,omitempty"`

	Subject      Reference `json:"subject"`
	RecordedDate string    `json:"recordedDate,omitempty"`
}

// MedicationStatement represents a FHIR R5 MedicationStatement resource.
type MedicationStatement struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id,omitempty"`
	Meta         *Meta  `json:"meta,omitempty"`

	Status string `json:"status"` // active | completed | stopped | ...

	// Medication uses the R5 CodeableReference form; this service always
	// populates the concept arm.
	Medication CodeableReference `json:"medication"`

	Subject      Reference `json:"subject"`
	DateAsserted string    `json:"dateAsserted,omitempty"`
}

// Procedure represents a FHIR R5 Procedure resource.
type Procedure struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id,omitempty"`
	Meta         *Meta  `json:"meta,omitempty"`

	Status string `json:"status"` // preparation | in-progress | completed | ...

	Code *CodeableConcept `json:"code,omitempty"`

	Subject           Reference `json:"subject"`
	PerformedDateTime string    `json:"performedDateTime,omitempty"`
}
