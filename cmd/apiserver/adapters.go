package main

import (
	"context"

	"github.com/turtacn/ClinFHIR-Bridge/internal/domain/fhir"
	keywordextractor "github.com/turtacn/ClinFHIR-Bridge/internal/intelligence/keyword_extractor"
)

// Readiness adapters for HealthHandler.

// extractorHealthAdapter exercises the extraction path with a fixed probe
// sentence so /readyz fails if the vocabulary or engine is broken.
type extractorHealthAdapter struct {
	extractor keywordextractor.Extractor
}

func (a *extractorHealthAdapter) Name() string {
	return "extractor"
}

func (a *extractorHealthAdapter) Check(ctx context.Context) error {
	_, err := a.extractor.Extract(ctx, "patient reports hypertension, taking lisinopril")
	return err
}

// bundleBuilderHealthAdapter assembles an empty bundle to verify the FHIR
// layer can produce documents.
type bundleBuilderHealthAdapter struct {
	builder *fhir.BundleBuilder
}

func (a *bundleBuilderHealthAdapter) Name() string {
	return "bundle_builder"
}

func (a *bundleBuilderHealthAdapter) Check(ctx context.Context) error {
	_, err := a.builder.Build("", nil)
	return err
}
