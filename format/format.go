// Package format holds the declarative fixed-width layouts of each record
// type and a catalog that loads and memoizes them.
package format

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

// FieldType selects how a field's bytes are converted.
type FieldType string

const (
	// IntegerNine is a base-10 integer; non-numeric content is missing.
	IntegerNine FieldType = "integer_nine"
	// IntegerZeroBlank is a base-10 integer where blank and 0 are both missing.
	IntegerZeroBlank FieldType = "integer_zero_blank"
	String           FieldType = "string"
	// StringHex is a hex-like token (e.g. the day index "a") kept verbatim.
	StringHex FieldType = "string_hex"
)

func (t FieldType) valid() bool {
	switch t {
	case IntegerNine, IntegerZeroBlank, String, StringHex:
		return true
	}
	return false
}

const (
	LineCRLF = "crlf"
	LineLF   = "lf"
)

// Field is one column of a fixed-width layout. Start is 1-based.
type Field struct {
	Name        string    `yaml:"name" json:"name"`
	Start       int       `yaml:"start" json:"start"`
	Length      int       `yaml:"length" json:"length"`
	Type        FieldType `yaml:"type" json:"type"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
}

// End is the 1-based inclusive last byte of the field.
func (f Field) End() int { return f.Start + f.Length - 1 }

// Definition is the layout of one record type.
type Definition struct {
	DataType          string   `yaml:"data_type" json:"data_type"`
	Description       string   `yaml:"description,omitempty" json:"description,omitempty"`
	RecordLength      int      `yaml:"record_length" json:"record_length"`
	Encoding          string   `yaml:"encoding" json:"encoding"`
	LineEnding        string   `yaml:"line_ending" json:"line_ending"`
	IdentifierColumns []string `yaml:"identifier_columns" json:"identifier_columns"`
	Fields            []Field  `yaml:"fields" json:"fields"`
}

// Validate checks the layout is self-consistent: every field fits inside the
// record, names are unique, and the identifier columns name real fields.
func (d *Definition) Validate() error {
	if d.DataType == "" {
		return fmt.Errorf("data_type is empty")
	}
	if d.RecordLength <= 0 {
		return fmt.Errorf("record_length must be positive, got %d", d.RecordLength)
	}
	if _, err := charset(d.Encoding); err != nil {
		return err
	}
	switch strings.ToLower(d.LineEnding) {
	case "", LineCRLF, LineLF:
	default:
		return fmt.Errorf("unknown line_ending %q", d.LineEnding)
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("no fields")
	}
	seen := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		switch {
		case f.Name == "":
			return fmt.Errorf("field at start %d has no name", f.Start)
		case seen[f.Name]:
			return fmt.Errorf("duplicate field %q", f.Name)
		case f.Start < 1 || f.Length < 1:
			return fmt.Errorf("field %q: start and length must be positive", f.Name)
		case f.End() > d.RecordLength:
			return fmt.Errorf("field %q ends at byte %d past record_length %d", f.Name, f.End(), d.RecordLength)
		case !f.Type.valid():
			return fmt.Errorf("field %q: unknown type %q", f.Name, f.Type)
		}
		seen[f.Name] = true
	}
	if len(d.IdentifierColumns) == 0 {
		return fmt.Errorf("identifier_columns is required")
	}
	for _, c := range d.IdentifierColumns {
		if !seen[c] {
			return fmt.Errorf("identifier column %q is not a field", c)
		}
	}
	return nil
}

// Field looks up a field by name.
func (d *Definition) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns field names in layout order.
func (d *Definition) FieldNames() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// Charset returns the text encoding records of this type are written in.
// Validate guarantees it is known; unknown names fall back to Shift-JIS.
func (d *Definition) Charset() encoding.Encoding {
	enc, err := charset(d.Encoding)
	if err != nil {
		return japanese.ShiftJIS
	}
	return enc
}

func charset(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "-", "_")) {
	case "", "shift_jis", "sjis", "cp932", "windows_31j":
		return japanese.ShiftJIS, nil
	case "euc_jp":
		return japanese.EUCJP, nil
	case "utf_8", "utf8":
		return unicode.UTF8, nil
	}
	return nil, fmt.Errorf("unknown encoding %q", name)
}
