package client

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrEmptyNote is returned by Convert when the clinical note is empty.
// Length validation beyond that is left to the server, which owns the
// minimum-length rule.
var ErrEmptyNote = errors.New("clinfhir: clinical note is empty")

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// ConvertRequest describes one conversion request.
type ConvertRequest struct {
	// ClinicalNote is the free-text note to convert.  The server rejects
	// notes shorter than its configured minimum (10 characters by default).
	ClinicalNote string `json:"clinical_note"`

	// PatientID optionally names the bundle subject.  When empty the server
	// substitutes its default patient reference.
	PatientID string `json:"patient_id,omitempty"`
}

// Entity is one extracted span of clinical text.  Type is "condition",
// "medication", or "procedure".
type Entity struct {
	Text       string  `json:"text"`
	Type       string  `json:"entity_type"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
}

// ConvertResponse is the outcome of a conversion.  Bundle is kept as raw
// JSON so the FHIR document round-trips losslessly to downstream systems.
type ConvertResponse struct {
	Status   string          `json:"status"`
	Entities []Entity        `json:"entities"`
	Bundle   json.RawMessage `json:"fhir_bundle,omitempty"`
	Warnings []string        `json:"warnings"`
}

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

// Convert extracts medical entities from a clinical note and returns them
// together with the assembled FHIR bundle.
// POST /convert
func (c *Client) Convert(ctx context.Context, req *ConvertRequest) (*ConvertResponse, error) {
	if req == nil || req.ClinicalNote == "" {
		return nil, ErrEmptyNote
	}

	var resp ConvertResponse
	if err := c.post(ctx, "/convert", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
