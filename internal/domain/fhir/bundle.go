package fhir

import (
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/ClinFHIR-Bridge/internal/domain/clinical"
	"github.com/turtacn/ClinFHIR-Bridge/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClinFHIR-Bridge/pkg/errors"
)

// BundleTypeCollection is the bundle type emitted by this service.
const BundleTypeCollection = "collection"

// DefaultPatientID is the subject used when the caller supplies none.
const DefaultPatientID = "example-patient"

// Bundle represents a FHIR Bundle resource.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	Type         string        `json:"type"`
	Timestamp    string        `json:"timestamp,omitempty"`
	Entry        []BundleEntry `json:"entry,omitempty"`
}

// BundleEntry wraps one resource inside a bundle.
type BundleEntry struct {
	FullURL  string      `json:"fullUrl,omitempty"`
	Resource interface{} `json:"resource,omitempty"`
}

// ResourceCount returns the number of entries in the bundle.
func (b *Bundle) ResourceCount() int {
	if b == nil {
		return 0
	}
	return len(b.Entry)
}

// ResourceTypeForCategory maps an entity category to the FHIR resource type
// its bundle entries are built as.
func ResourceTypeForCategory(c clinical.Category) (string, error) {
	switch c {
	case clinical.CategoryCondition:
		return ResourceTypeCondition, nil
	case clinical.CategoryMedication:
		return ResourceTypeMedicationStatement, nil
	case clinical.CategoryProcedure:
		return ResourceTypeProcedure, nil
	default:
		return "", errors.Newf(errors.ErrCodeUnknownCategory,
			"no resource type for category %q", c)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// BundleBuilder
// ─────────────────────────────────────────────────────────────────────────────

// BundleBuilder assembles collection bundles from extracted entities.  One
// builder serves any number of Build calls; the clock and ID source can be
// replaced for deterministic output.  The zero value is not usable; use
// NewBundleBuilder.
type BundleBuilder struct {
	now    func() time.Time
	newID  func() string
	logger logging.Logger
}

// NewBundleBuilder returns a builder with the real clock and UUID source.
func NewBundleBuilder() *BundleBuilder {
	return &BundleBuilder{
		now:    time.Now,
		newID:  uuid.NewString,
		logger: logging.NewNopLogger(),
	}
}

// WithClock replaces the time source.  A nil argument is ignored.
func (b *BundleBuilder) WithClock(now func() time.Time) *BundleBuilder {
	if now != nil {
		b.now = now
	}
	return b
}

// WithIDGenerator replaces the resource/entry ID source.  A nil argument is
// ignored.
func (b *BundleBuilder) WithIDGenerator(newID func() string) *BundleBuilder {
	if newID != nil {
		b.newID = newID
	}
	return b
}

// WithLogger replaces the no-op logger.  A nil argument is ignored.
func (b *BundleBuilder) WithLogger(logger logging.Logger) *BundleBuilder {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// Build assembles a collection bundle referencing the given patient.  An
// empty patientID falls back to DefaultPatientID.  Entities are grouped by
// category (conditions, then medications, then procedures) to select each
// entry's resource type; within a group the input order is kept.  An empty
// entity list yields a bundle with no entry element at all.
//
// Entities whose category has no resource mapping cannot come out of the
// extractor; hand-built inputs with one are skipped with a warning.
//
// All timestamps in one bundle come from a single clock read, in UTC.
func (b *BundleBuilder) Build(patientID string, entities []clinical.Entity) (*Bundle, error) {
	if patientID == "" {
		patientID = DefaultPatientID
	}

	for _, e := range entities {
		if _, err := ResourceTypeForCategory(e.Type); err != nil {
			b.logger.Warn("skipping entity with no resource mapping",
				logging.String("category", e.Type.String()),
				logging.Int("start", e.Start),
				logging.Int("end", e.End),
			)
		}
	}

	stamp := b.now().UTC().Format(time.RFC3339)
	subject := PatientReference(patientID)

	var entries []BundleEntry
	for _, category := range clinical.CategoryOrder() {
		for _, e := range entities {
			if e.Type != category {
				continue
			}
			fullURL := "urn:uuid:" + b.newID()
			entries = append(entries, BundleEntry{
				FullURL:  fullURL,
				Resource: b.buildResource(e, subject, stamp),
			})
		}
	}

	return &Bundle{
		ResourceType: ResourceTypeBundle,
		Type:         BundleTypeCollection,
		Timestamp:    stamp,
		Entry:        entries,
	}, nil
}

func (b *BundleBuilder) buildResource(e clinical.Entity, subject Reference, stamp string) interface{} {
	switch e.Type {
	case clinical.CategoryMedication:
		return b.buildMedicationStatement(e, subject, stamp)
	case clinical.CategoryProcedure:
		return b.buildProcedure(e, subject, stamp)
	default:
		return b.buildCondition(e, subject, stamp)
	}
}

func (b *BundleBuilder) buildCondition(e clinical.Entity, subject Reference, stamp string) *Condition {
	return &Condition{
		ResourceType:       ResourceTypeCondition,
		ID:                 b.newID(),
		ClinicalStatus:     CodedConcept(SystemConditionClinical, ClinicalStatusActive),
		VerificationStatus: CodedConcept(SystemConditionVerStatus, VerificationConfirmed),
		// TODO: attach SNOMED CT codings once a terminology service is wired.
		Code:         TextConcept(e.Text),
		Subject:      subject,
		RecordedDate: stamp,
	}
}

func (b *BundleBuilder) buildMedicationStatement(e clinical.Entity, subject Reference, stamp string) *MedicationStatement {
	return &MedicationStatement{
		ResourceType: ResourceTypeMedicationStatement,
		ID:           b.newID(),
		Status:       StatusActive,
		Medication:   CodeableReference{Concept: TextConcept(e.Text)},
		Subject:      subject,
		DateAsserted: stamp,
	}
}

func (b *BundleBuilder) buildProcedure(e clinical.Entity, subject Reference, stamp string) *Procedure {
	return &Procedure{
		ResourceType:      ResourceTypeProcedure,
		ID:                b.newID(),
		Status:            StatusCompleted,
		Code:              TextConcept(e.Text),
		Subject:           subject,
		PerformedDateTime: stamp,
	}
}
