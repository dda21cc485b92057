package format

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/padraicbc/racefeat/errs"
)

func TestDefaultCatalogLoadsShippedLayouts(t *testing.T) {
	c := Default()
	want := []string{"BAC", "CYB", "KAB", "KYI", "SED", "UKC"}
	got := c.Codes()
	if len(got) != len(want) {
		t.Fatalf("Codes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Codes() = %v, want %v", got, want)
		}
	}
	if err := c.Warm(); err != nil {
		t.Fatalf("Warm() error: %v", err)
	}
	for _, code := range want {
		d, err := c.Load(code)
		if err != nil {
			t.Fatalf("Load(%s): %v", code, err)
		}
		if d.DataType != code {
			t.Errorf("Load(%s).DataType = %q", code, d.DataType)
		}
		if len(d.IdentifierColumns) == 0 {
			t.Errorf("Load(%s) has no identifier columns", code)
		}
	}
}

func TestLoadMemoizes(t *testing.T) {
	c := Default()
	a, err := c.Load("SED")
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Load("sed")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("second Load returned a different pointer")
	}
}

func TestUnknownCode(t *testing.T) {
	c := Default()
	_, err := c.Load("ZZZ")
	var nf *errs.FormatNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Load(ZZZ) error = %v, want FormatNotFoundError", err)
	}
	if nf.DataType != "ZZZ" {
		t.Errorf("DataType = %q", nf.DataType)
	}
	if d, ok := c.Lookup("ZZZ"); ok || d != nil {
		t.Fatalf("Lookup(ZZZ) = %v, %v; want nil, false", d, ok)
	}
}

func TestInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{
			name: "missing identifier columns",
			file: "xxa.yaml",
			body: `data_type: XXA
record_length: 10
encoding: shift_jis
fields:
  - {name: a, start: 1, length: 2, type: integer_nine}
`,
		},
		{
			name: "field past record end",
			file: "xxa.yaml",
			body: `data_type: XXA
record_length: 4
encoding: shift_jis
identifier_columns: [a]
fields:
  - {name: a, start: 3, length: 3, type: integer_nine}
`,
		},
		{
			name: "unknown type",
			file: "xxa.yaml",
			body: `data_type: XXA
record_length: 4
identifier_columns: [a]
fields:
  - {name: a, start: 1, length: 2, type: float}
`,
		},
		{
			name: "identifier not a field",
			file: "xxa.json",
			body: `{"data_type":"XXA","record_length":4,"identifier_columns":["b"],
"fields":[{"name":"a","start":1,"length":2,"type":"string"}]}`,
		},
		{
			name: "data type mismatch",
			file: "xxa.yaml",
			body: `data_type: XXB
record_length: 4
identifier_columns: [a]
fields:
  - {name: a, start: 1, length: 2, type: string}
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCatalog(fstest.MapFS{tt.file: {Data: []byte(tt.body)}})
			_, err := c.Load("XXA")
			var nf *errs.FormatNotFoundError
			if !errors.As(err, &nf) {
				t.Fatalf("Load error = %v, want FormatNotFoundError", err)
			}
			if nf.Reason == "" {
				t.Error("expected a reason for the invalid definition")
			}
			if _, ok := c.Lookup("XXA"); ok {
				t.Error("Lookup reported an invalid definition as present")
			}
		})
	}
}

func TestJSONDefinitionAndOverride(t *testing.T) {
	override := fstest.MapFS{
		"bac.json": {Data: []byte(`{"data_type":"BAC","record_length":10,"encoding":"utf-8",
"line_ending":"lf","identifier_columns":["n1"],
"fields":[{"name":"n1","start":1,"length":3,"type":"integer_nine"}]}`)},
	}
	c := NewCatalog(override, builtin())
	d, err := c.Load("BAC")
	if err != nil {
		t.Fatal(err)
	}
	if d.RecordLength != 10 || len(d.Fields) != 1 {
		t.Fatalf("override not applied: %+v", d)
	}
	if _, err := c.Load("SED"); err != nil {
		t.Fatalf("embedded fallback: %v", err)
	}
}

func TestFieldLookup(t *testing.T) {
	d, err := Default().Load("SED")
	if err != nil {
		t.Fatal(err)
	}
	f, ok := d.Field("finish_pos")
	if !ok {
		t.Fatal("finish_pos not found")
	}
	if f.Type != IntegerNine || f.End() > d.RecordLength {
		t.Errorf("unexpected finish_pos field %+v", f)
	}
	if _, ok := d.Field("nope"); ok {
		t.Error("found a field that does not exist")
	}
	if names := d.FieldNames(); names[0] != "venue_code" {
		t.Errorf("FieldNames()[0] = %q", names[0])
	}
}
