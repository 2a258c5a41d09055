package clinical

import (
	"github.com/turtacn/ClinFHIR-Bridge/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Entity — extracted clinical mention value object
// ─────────────────────────────────────────────────────────────────────────────

// Entity is a single clinical mention located in a source text.  Text always
// holds the exact substring source[Start:End] with the source's original
// casing; matching is case-insensitive but the entity preserves what the
// author wrote.  Offsets are byte offsets, half-open: Start inclusive, End
// exclusive.
type Entity struct {
	Text       string   `json:"text"`
	Type       Category `json:"entity_type"`
	Start      int      `json:"start"`
	End        int      `json:"end"`
	Confidence float64  `json:"confidence"`
}

// NewEntity constructs an Entity and enforces its invariants:
//
//   - category must be a known Category
//   - 0 <= start < end
//   - len(text) == end - start
//   - confidence in (0, 1]
//
// Span agreement with a concrete source text is checked separately by
// Validate, since construction sites do not always hold the full source.
func NewEntity(text string, category Category, start, end int, confidence float64) (*Entity, error) {
	if !category.IsValid() {
		return nil, errors.Newf(errors.ErrCodeValidation, "unknown entity category %q", category)
	}
	if text == "" {
		return nil, errors.New(errors.ErrCodeValidation, "entity text must not be empty")
	}
	if start < 0 || end <= start {
		return nil, errors.Newf(errors.ErrCodeValidation, "invalid entity span [%d, %d)", start, end)
	}
	if len(text) != end-start {
		return nil, errors.Newf(errors.ErrCodeValidation,
			"entity text length %d does not match span [%d, %d)", len(text), start, end)
	}
	if confidence <= 0 || confidence > 1 {
		return nil, errors.Newf(errors.ErrCodeValidation, "confidence %g outside (0, 1]", confidence)
	}
	return &Entity{
		Text:       text,
		Type:       category,
		Start:      start,
		End:        end,
		Confidence: confidence,
	}, nil
}

// Validate checks the entity's span against the source text it was extracted
// from: the span must lie inside the source and source[Start:End] must equal
// Text byte for byte.
func (e *Entity) Validate(source string) error {
	if e.Start < 0 || e.End <= e.Start || e.End > len(source) {
		return errors.Newf(errors.ErrCodeValidation,
			"entity span [%d, %d) outside source of length %d", e.Start, e.End, len(source))
	}
	if source[e.Start:e.End] != e.Text {
		return errors.Newf(errors.ErrCodeValidation,
			"entity text %q does not match source span %q", e.Text, source[e.Start:e.End])
	}
	if !e.Type.IsValid() {
		return errors.Newf(errors.ErrCodeValidation, "unknown entity category %q", e.Type)
	}
	if e.Confidence <= 0 || e.Confidence > 1 {
		return errors.Newf(errors.ErrCodeValidation, "confidence %g outside (0, 1]", e.Confidence)
	}
	return nil
}

// Len returns the span length in bytes.
func (e *Entity) Len() int {
	return e.End - e.Start
}

// CountByCategory tallies entities per category.  Categories with no entities
// are absent from the result.
func CountByCategory(entities []Entity) map[Category]int {
	counts := make(map[Category]int, len(categoryOrder))
	for _, e := range entities {
		counts[e.Type]++
	}
	return counts
}
