// Package issues defines the validation issues reported by a run.
package issues

import "fmt"

// Category groups issues by how the pipeline reacts to them.
type Category string

const (
	// SchemaError means a sheet's header could not be located or classified;
	// the sheet is skipped.
	SchemaError Category = "SCHEMA_ERROR"
	// MappingMissing means a compound has no class; the row is kept.
	MappingMissing Category = "MAPPING_MISSING"
	// DuplicateKey means a species-map key was ambiguous and was dropped.
	DuplicateKey Category = "DUPLICATE_KEY"
)

// Codes.
const (
	CodeClassMissing     = "CLASS_MISSING"
	CodeSpeciesAmbiguous = "SPECIES_KEY_AMBIGUOUS"
	CodeNoTableHeader    = "no_table_header"
	CodeNoSchemaDetected = "no_schema_detected"
	CodeDuplicateHeaders = "duplicate_headers"
	CodeReadError        = "read_error"
)

// Issue is one reported problem. Row is the 1-based worksheet row, or 0
// when the issue is not tied to a row.
type Issue struct {
	Category Category `yaml:"category" json:"category"`
	Code     string   `yaml:"code" json:"code"`
	Message  string   `yaml:"message" json:"message"`
	Sheet    string   `yaml:"sheet,omitempty" json:"sheet,omitempty"`
	Row      int      `yaml:"row,omitempty" json:"row,omitempty"`
}

func (i Issue) String() string {
	loc := i.Sheet
	if i.Row > 0 {
		loc = fmt.Sprintf("%s row %d", i.Sheet, i.Row)
	}
	if loc == "" {
		return fmt.Sprintf("%s/%s: %s", i.Category, i.Code, i.Message)
	}
	return fmt.Sprintf("%s/%s [%s]: %s", i.Category, i.Code, loc, i.Message)
}

// Count tallies issues per category.
func Count(list []Issue) map[Category]int {
	out := map[Category]int{}
	for _, i := range list {
		out[i.Category]++
	}
	return out
}
