package handlers

import (
	"net/http"
	"unicode/utf8"

	"github.com/turtacn/ClinFHIR-Bridge/internal/application/conversion"
	"github.com/turtacn/ClinFHIR-Bridge/pkg/errors"
)

// MinClinicalNoteLength is the minimum number of characters a clinical note
// must contain before extraction is attempted.  Notes of exactly this length
// are accepted.
const MinClinicalNoteLength = 10

// ConvertHandler handles clinical note conversion requests.
type ConvertHandler struct {
	service conversion.Service
	maxBody int64
}

// NewConvertHandler creates a ConvertHandler backed by the given conversion
// service.  maxBody caps the accepted request body size in bytes; zero or
// negative disables the cap.
func NewConvertHandler(service conversion.Service, maxBody int64) *ConvertHandler {
	if service == nil {
		panic("handlers: conversion service must not be nil")
	}
	return &ConvertHandler{
		service: service,
		maxBody: maxBody,
	}
}

// Convert handles POST /convert.  The request body carries the clinical note
// and an optional patient identifier; the response carries the extracted
// entities and the assembled FHIR bundle.
func (h *ConvertHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var input conversion.ConvertInput
	if err := decodeJSON(w, r, &input, h.maxBody); err != nil {
		writeAppError(w, err)
		return
	}

	// Character count, not byte count; multi-byte input must not be
	// rejected early.
	if n := utf8.RuneCountInString(input.ClinicalNote); n < MinClinicalNoteLength {
		writeAppError(w, errors.NoteTooShort(MinClinicalNoteLength, n))
		return
	}

	result, err := h.service.Convert(r.Context(), &input)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
