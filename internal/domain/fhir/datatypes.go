// Package fhir provides the FHIR R5 data structures and the bundle assembly
// logic used to express extracted clinical entities as typed resources.
// Only the resource types and datatypes this service emits are modelled;
// this is not a general FHIR client library.
package fhir

// ─────────────────────────────────────────────────────────────────────────────
// Common datatypes
// ─────────────────────────────────────────────────────────────────────────────

// Meta contains metadata about a resource.
type Meta struct {
	VersionID   string   `json:"versionId,omitempty"`
	LastUpdated string   `json:"lastUpdated,omitempty"`
	Source      string   `json:"source,omitempty"`
	Profile     []string `json:"profile,omitempty"`
}

// Coding represents a code from a terminology system.
type Coding struct {
	System  string `json:"system,omitempty"`
	Version string `json:"version,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

// CodeableConcept represents a concept with free text and zero or more codings.
type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// Reference represents a reference to another resource.
type Reference struct {
	Reference string `json:"reference,omitempty"`
	Type      string `json:"type,omitempty"`
	Display   string `json:"display,omitempty"`
}

// CodeableReference is new in FHIR R5 - either a concept or a reference.
type CodeableReference struct {
	Concept   *CodeableConcept `json:"concept,omitempty"`
	Reference *Reference       `json:"reference,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Code systems and fixed codes
// ─────────────────────────────────────────────────────────────────────────────

const (
	SystemConditionClinical  = "http://terminology.hl7.org/CodeSystem/condition-clinical"
	SystemConditionVerStatus = "http://terminology.hl7.org/CodeSystem/condition-ver-status"
)

const (
	ClinicalStatusActive  = "active"
	VerificationConfirmed = "confirmed"

	StatusActive    = "active"
	StatusCompleted = "completed"
)

// ─────────────────────────────────────────────────────────────────────────────
// Constructors
// ─────────────────────────────────────────────────────────────────────────────

// TextConcept returns a CodeableConcept carrying free text and no codings.
func TextConcept(text string) *CodeableConcept {
	return &CodeableConcept{Text: text}
}

// CodedConcept returns a CodeableConcept with a single system+code coding.
func CodedConcept(system, code string) *CodeableConcept {
	return &CodeableConcept{
		Coding: []Coding{{System: system, Code: code}},
	}
}

// PatientReference returns a literal reference to a Patient resource.
func PatientReference(patientID string) Reference {
	return Reference{Reference: "Patient/" + patientID}
}
