// Package clinical implements the clinical-entity bounded context for the
// ClinFHIR-Bridge platform: entity categories, the extracted Entity value
// object, and the keyword vocabulary with its invariants.  All business rules
// that concern extracted entities live here; the extraction algorithm itself
// and FHIR resource mapping are handled by separate layers.
package clinical

import (
	"fmt"
)

// Category classifies an extracted entity by clinical meaning.  The category
// decides which FHIR resource type the entity is later projected into.
type Category string

const (
	// CategoryCondition covers diagnoses and clinical findings.
	CategoryCondition Category = "condition"

	// CategoryMedication covers drug and substance mentions.
	CategoryMedication Category = "medication"

	// CategoryProcedure covers diagnostic and therapeutic interventions.
	CategoryProcedure Category = "procedure"
)

// categoryOrder fixes the processing order of categories.  Extraction output
// is grouped by category in exactly this order, with scan order preserved
// inside each group.
var categoryOrder = []Category{
	CategoryCondition,
	CategoryMedication,
	CategoryProcedure,
}

// validCategories is the set of categories the platform currently supports.
var validCategories = map[Category]bool{
	CategoryCondition:  true,
	CategoryMedication: true,
	CategoryProcedure:  true,
}

// CategoryOrder returns the fixed category processing order.  The returned
// slice is a copy; callers may reorder it freely.
func CategoryOrder() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	return validCategories[c]
}

// String returns the category's wire name.
func (c Category) String() string {
	return string(c)
}

// ParseCategory converts a wire name into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", fmt.Errorf("unknown entity category %q", s)
	}
	return c, nil
}
