// Package langs holds the enumerated supported-language table used for
// dropdown population and display-label resolution. The table is a
// configuration input, not something negotiated from the capability
// service; a language can appear here and still be rejected by the
// service for a particular pair.
package langs

import (
	"fmt"

	"golang.org/x/text/language"
)

// Language is one entry of the supported-language table.
type Language struct {
	// Code is a BCP 47 / ISO 639-1 language code, e.g. "en".
	Code string `json:"code" mapstructure:"code"`
	// Label is the human-readable name shown in the UI.
	Label string `json:"label" mapstructure:"label"`
}

// DefaultTarget is the target language pre-selected for every message.
const DefaultTarget = "en"

// defaultTable mirrors the product's fixed language list.
var defaultTable = []Language{
	{Code: "en", Label: "English"},
	{Code: "pt", Label: "Portuguese"},
	{Code: "es", Label: "Spanish"},
	{Code: "ru", Label: "Russian"},
	{Code: "tr", Label: "Turkish"},
	{Code: "fr", Label: "French"},
}

// Table is an ordered, immutable set of supported languages.
type Table struct {
	entries []Language
	byCode  map[string]Language
}

// NewTable builds a Table from the given entries, canonicalizing each code
// via x/text. Invalid or duplicate codes are rejected.
func NewTable(entries []Language) (*Table, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("language table must not be empty")
	}

	t := &Table{
		entries: make([]Language, 0, len(entries)),
		byCode:  make(map[string]Language, len(entries)),
	}
	for _, e := range entries {
		tag, err := language.Parse(e.Code)
		if err != nil {
			return nil, fmt.Errorf("invalid language code %q: %w", e.Code, err)
		}
		base, _ := tag.Base()
		code := base.String()
		if _, dup := t.byCode[code]; dup {
			return nil, fmt.Errorf("duplicate language code %q", code)
		}
		entry := Language{Code: code, Label: e.Label}
		t.entries = append(t.entries, entry)
		t.byCode[code] = entry
	}
	return t, nil
}

// Default returns the built-in table (en, pt, es, ru, tr, fr).
func Default() *Table {
	t, err := NewTable(defaultTable)
	if err != nil {
		// The built-in table is static; a parse failure here is a bug.
		panic(err)
	}
	return t
}

// All returns the table entries in declaration order. The returned slice
// must not be mutated.
func (t *Table) All() []Language {
	return t.entries
}

// Contains reports whether code is in the table.
func (t *Table) Contains(code string) bool {
	_, ok := t.byCode[code]
	return ok
}

// LabelFor resolves the display label for code. Codes absent from the
// table fall back to the raw code so a detected-but-unlisted language
// still renders as something.
func (t *Table) LabelFor(code string) string {
	if e, ok := t.byCode[code]; ok {
		return e.Label
	}
	return code
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }
