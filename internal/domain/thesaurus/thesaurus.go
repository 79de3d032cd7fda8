// Package thesaurus defines the controlled vocabulary that reconciles raw archive
// values with the canonical values shown to clients.
package thesaurus

import "fmt"

// FieldType names a thesaurus-controlled field. Its value equals the last segment
// of the document path it normalizes (folklore.genre -> genre).
type FieldType string

// Normalized fields.
const (
	Genre            FieldType = "genre"
	LanguageOfOrigin FieldType = "language_of_origin"
)

// FieldTypes lists every normalized field.
var FieldTypes = []FieldType{Genre, LanguageOfOrigin}

// IsValid reports whether f is a normalized field.
func (f FieldType) IsValid() bool {
	return f == Genre || f == LanguageOfOrigin
}

// ParseFieldType returns the normalized field named by s.
func ParseFieldType(s string) (FieldType, bool) {
	f := FieldType(s)
	return f, f.IsValid()
}

// Entry maps one canonical value to the raw values it stands for.
// Within a field type raw value sets are expected to be disjoint.
type Entry struct {
	Type      FieldType `bson:"type"`
	Canonical string    `bson:"maps_to"`
	RawValues []string  `bson:"maps_from"`
}

// Validate checks the entry is usable.
func (e Entry) Validate() error {
	if !e.Type.IsValid() {
		return fmt.Errorf("unknown thesaurus type %q", e.Type)
	}
	if e.Canonical == "" {
		return fmt.Errorf("thesaurus %s entry has empty maps_to", e.Type)
	}
	return nil
}
