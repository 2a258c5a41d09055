// Package conversion provides the application-level service for clinical note
// conversion.  It sits between the transport layers and the extraction and
// FHIR domains: one call runs the keyword extractor and assembles the
// resulting entities into a bundle.
package conversion

import (
	"context"
	"time"

	"github.com/turtacn/ClinFHIR-Bridge/internal/domain/clinical"
	"github.com/turtacn/ClinFHIR-Bridge/internal/domain/fhir"
	"github.com/turtacn/ClinFHIR-Bridge/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClinFHIR-Bridge/internal/infrastructure/monitoring/prometheus"
	keywordextractor "github.com/turtacn/ClinFHIR-Bridge/internal/intelligence/keyword_extractor"
	"github.com/turtacn/ClinFHIR-Bridge/pkg/errors"
)

// StatusSuccess is the status reported on every non-error conversion.
const StatusSuccess = "success"

// WarningNoEntities is appended to a result when extraction found nothing.
const WarningNoEntities = "no entities were extracted from the provided text"

// ---------------------------------------------------------------------------
// Request / Response DTOs
// ---------------------------------------------------------------------------

// ConvertInput carries one conversion request.  PatientID may be empty; the
// bundle builder substitutes its default subject.
type ConvertInput struct {
	ClinicalNote string `json:"clinical_note"`
	PatientID    string `json:"patient_id,omitempty"`
}

// ConvertResult is the outcome of a conversion.  Entities and Warnings are
// always non-nil so they serialize as arrays.
type ConvertResult struct {
	Status   string            `json:"status"`
	Entities []clinical.Entity `json:"entities"`
	Bundle   *fhir.Bundle      `json:"fhir_bundle,omitempty"`
	Warnings []string          `json:"warnings"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

// Service defines the application-layer contract for note conversion.
type Service interface {
	// Convert extracts entities from a clinical note and assembles them into
	// a FHIR bundle.
	Convert(ctx context.Context, input *ConvertInput) (*ConvertResult, error)

	// ExtractOnly runs extraction without bundle assembly, for callers that
	// only want the spans.
	ExtractOnly(ctx context.Context, note string) ([]clinical.Entity, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

// serviceImpl orchestrates extraction and bundle assembly.
type serviceImpl struct {
	extractor keywordextractor.Extractor
	builder   *fhir.BundleBuilder
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
}

// NewService constructs a conversion Service.  metrics may be nil to disable
// instrumentation; a nil logger falls back to the no-op logger.
func NewService(
	extractor keywordextractor.Extractor,
	builder *fhir.BundleBuilder,
	metrics *prometheus.AppMetrics,
	logger logging.Logger,
) Service {
	if extractor == nil {
		panic("conversion: extractor must not be nil")
	}
	if builder == nil {
		panic("conversion: builder must not be nil")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &serviceImpl{
		extractor: extractor,
		builder:   builder,
		metrics:   metrics,
		logger:    logger.Named("conversion"),
	}
}

// validateConvertInput checks the fields this layer owns.  The minimum note
// length rule belongs to the transport layer.
func validateConvertInput(input *ConvertInput) error {
	if input == nil {
		return errors.InvalidParam("conversion input must not be nil")
	}
	if input.ClinicalNote == "" {
		return errors.InvalidParam("clinical_note must not be empty")
	}
	return nil
}

func (s *serviceImpl) Convert(ctx context.Context, input *ConvertInput) (*ConvertResult, error) {
	if err := validateConvertInput(input); err != nil {
		return nil, err
	}

	start := time.Now()
	s.logger.Info("starting conversion",
		logging.Int("note_length", len(input.ClinicalNote)),
		logging.Bool("has_patient_id", input.PatientID != ""),
	)

	extraction, err := s.runExtraction(ctx, input.ClinicalNote)
	if err != nil {
		s.recordOutcome(false, start)
		return nil, err
	}

	bundleStart := time.Now()
	bundle, err := s.builder.Build(input.PatientID, extraction.Entities)
	if err != nil {
		s.logger.Error("bundle assembly failed", logging.Err(err))
		s.recordOutcome(false, start)
		if errors.AsAppError(err) != nil {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrCodeConversionFailed, "bundle assembly failed")
	}
	if s.metrics != nil {
		prometheus.RecordBundleBuild(s.metrics, resourceCounts(extraction.Entities), time.Since(bundleStart))
	}

	warnings := []string{}
	if len(extraction.Entities) == 0 {
		warnings = append(warnings, WarningNoEntities)
		s.logger.Warn("extraction matched no entities",
			logging.Int("note_length", len(input.ClinicalNote)))
	}

	s.recordOutcome(true, start)
	s.logger.Info("conversion completed",
		logging.Int("entity_count", len(extraction.Entities)),
		logging.Int("resource_count", bundle.ResourceCount()),
		logging.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return &ConvertResult{
		Status:   StatusSuccess,
		Entities: extraction.Entities,
		Bundle:   bundle,
		Warnings: warnings,
	}, nil
}

func (s *serviceImpl) ExtractOnly(ctx context.Context, note string) ([]clinical.Entity, error) {
	if note == "" {
		return nil, errors.InvalidParam("clinical_note must not be empty")
	}
	extraction, err := s.runExtraction(ctx, note)
	if err != nil {
		return nil, err
	}
	return extraction.Entities, nil
}

// runExtraction invokes the intelligence layer and records its metrics.
// Extraction errors that already carry an AppError pass through unchanged so
// the transport keeps their status mapping.
func (s *serviceImpl) runExtraction(ctx context.Context, note string) (*keywordextractor.ExtractionResult, error) {
	extraction, err := s.extractor.Extract(ctx, note)
	if err != nil {
		s.logger.Error("extraction failed", logging.Err(err))
		if errors.AsAppError(err) != nil {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrCodeConversionFailed, "entity extraction failed")
	}
	if s.metrics != nil {
		duration := time.Duration(extraction.ProcessingTimeMs) * time.Millisecond
		prometheus.RecordExtraction(s.metrics, extraction.TextLength, entityCounts(extraction.Entities), duration)
	}
	return extraction, nil
}

func (s *serviceImpl) recordOutcome(success bool, start time.Time) {
	if s.metrics != nil {
		prometheus.RecordConversion(s.metrics, success, time.Since(start))
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// entityCounts tallies entities per category label.
func entityCounts(entities []clinical.Entity) map[string]int {
	counts := make(map[string]int)
	for category, n := range clinical.CountByCategory(entities) {
		counts[category.String()] = n
	}
	return counts
}

// resourceCounts tallies entities per emitted FHIR resource type.  Entities
// the builder skips contribute nothing.
func resourceCounts(entities []clinical.Entity) map[string]int {
	counts := make(map[string]int)
	for category, n := range clinical.CountByCategory(entities) {
		resourceType, err := fhir.ResourceTypeForCategory(category)
		if err != nil {
			continue
		}
		counts[resourceType] = n
	}
	return counts
}

// Compile-time interface satisfaction check.
var _ Service = (*serviceImpl)(nil)
