package clinical

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/turtacn/ClinFHIR-Bridge/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Built-in vocabulary
// ─────────────────────────────────────────────────────────────────────────────

// Built-in keyword tables.  All terms are lowercase; the extractor folds the
// source text before matching, so a term with an uppercase letter could never
// match and is rejected by Validate.
var (
	defaultConditions = []string{
		"pain", "diabetes", "hypertension", "infection", "fever",
		"myocardial infarction", "mi", "copd", "asthma", "pneumonia",
	}

	defaultMedications = []string{
		"lisinopril", "metformin", "aspirin", "insulin", "atorvastatin",
		"omeprazole", "levothyroxine", "amlodipine",
	}

	defaultProcedures = []string{
		"surgery", "intervention", "biopsy", "imaging", "x-ray",
		"ct scan", "mri", "ultrasound", "echocardiogram",
	}
)

// ─────────────────────────────────────────────────────────────────────────────
// Vocabulary
// ─────────────────────────────────────────────────────────────────────────────

// Vocabulary holds the keyword terms per category that drive extraction.
// A Vocabulary is immutable after construction; build a new one to change
// terms.  Construction always validates, so a held *Vocabulary is known good.
type Vocabulary struct {
	terms map[Category][]string
}

// NewVocabulary constructs a Vocabulary from per-category term lists.
// The input map is deep-copied; later mutation of the argument does not
// affect the returned Vocabulary.
func NewVocabulary(terms map[Category][]string) (*Vocabulary, error) {
	copied := make(map[Category][]string, len(terms))
	for category, list := range terms {
		dst := make([]string, len(list))
		copy(dst, list)
		copied[category] = dst
	}
	v := &Vocabulary{terms: copied}
	if err := v.validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// DefaultVocabulary returns the built-in vocabulary.
func DefaultVocabulary() *Vocabulary {
	v, err := NewVocabulary(map[Category][]string{
		CategoryCondition:  defaultConditions,
		CategoryMedication: defaultMedications,
		CategoryProcedure:  defaultProcedures,
	})
	if err != nil {
		// The built-in tables are validated by tests; reaching this is a bug.
		panic(err)
	}
	return v
}

// vocabularyFile is the on-disk YAML schema.
type vocabularyFile struct {
	Conditions  []string `yaml:"conditions"`
	Medications []string `yaml:"medications"`
	Procedures  []string `yaml:"procedures"`
}

// LoadVocabularyFile reads and validates a vocabulary from a YAML file of the
// form:
//
//	conditions:
//	  - diabetes
//	medications:
//	  - aspirin
//	procedures:
//	  - x-ray
//
// Categories absent from the file contribute no terms.
func LoadVocabularyFile(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVocabularyInvalid, "failed to read vocabulary file").
			WithDetail("path=" + path)
	}
	var file vocabularyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVocabularyInvalid, "failed to parse vocabulary file").
			WithDetail("path=" + path)
	}
	return NewVocabulary(map[Category][]string{
		CategoryCondition:  file.Conditions,
		CategoryMedication: file.Medications,
		CategoryProcedure:  file.Procedures,
	})
}

// Terms returns the term list for a category in declaration order.
// The returned slice is a copy.
func (v *Vocabulary) Terms(category Category) []string {
	list := v.terms[category]
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// Categories returns the categories that carry at least one term, in the
// fixed category processing order.
func (v *Vocabulary) Categories() []Category {
	out := make([]Category, 0, len(categoryOrder))
	for _, category := range categoryOrder {
		if len(v.terms[category]) > 0 {
			out = append(out, category)
		}
	}
	return out
}

// TermCount returns the total number of terms across all categories.
func (v *Vocabulary) TermCount() int {
	n := 0
	for _, list := range v.terms {
		n += len(list)
	}
	return n
}

// validate enforces the vocabulary invariants:
//
//   - every category key is a known Category
//   - every term is non-empty
//   - every term is already lowercase (no ASCII uppercase letters)
//   - no duplicate terms within a category
func (v *Vocabulary) validate() error {
	for category, list := range v.terms {
		if !category.IsValid() {
			return errors.Newf(errors.ErrCodeVocabularyInvalid, "unknown vocabulary category %q", category)
		}
		seen := make(map[string]bool, len(list))
		for _, term := range list {
			if term == "" {
				return errors.Newf(errors.ErrCodeVocabularyInvalid,
					"empty term in category %q", category)
			}
			if hasASCIIUpper(term) {
				return errors.Newf(errors.ErrCodeVocabularyInvalid,
					"term %q in category %q contains uppercase letters; terms must be lowercase", term, category)
			}
			if seen[term] {
				return errors.Newf(errors.ErrCodeVocabularyInvalid,
					"duplicate term %q in category %q", term, category)
			}
			seen[term] = true
		}
	}
	return nil
}

func hasASCIIUpper(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			return true
		}
	}
	return false
}
