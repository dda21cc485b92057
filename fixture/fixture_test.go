package fixture

import (
	"testing"

	"github.com/padraicbc/racefeat/fixedwidth"
	"github.com/padraicbc/racefeat/format"
)

func TestGenerateEncodesAndDecodes(t *testing.T) {
	o := DefaultOptions()
	o.Days, o.RacesPerDay = 3, 2
	season := Generate(o)

	files, err := Encode(format.Default(), season)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]int{
		"KAB": o.Days,
		"BAC": o.Days * o.RacesPerDay,
		"KYI": o.Days * o.RacesPerDay * o.Runners,
		"SED": o.Days * o.RacesPerDay * o.Runners,
		"CYB": o.Days * o.RacesPerDay * o.Runners,
		"UKC": o.Horses,
	}
	for code, n := range want {
		def, err := format.Default().Load(code)
		if err != nil {
			t.Fatal(err)
		}
		tb := fixedwidth.Decode(files[code], def)
		if tb.Len() != n {
			t.Errorf("%s: %d rows, want %d", code, tb.Len(), n)
		}
	}

	def, _ := format.Default().Load("UKC")
	rec := fixedwidth.DecodeRecord(fixedwidth.Split(files["UKC"], def)[3], def)
	if got := rec.Get("horse_name").String(); got != horseName(3) {
		t.Errorf("horse_name = %q, want %q", got, horseName(3))
	}
}

func TestGenerateDeterministic(t *testing.T) {
	o := DefaultOptions()
	o.Days = 2
	a, _ := Encode(format.Default(), Generate(o))
	b, _ := Encode(format.Default(), Generate(o))
	for code := range a {
		if string(a[code]) != string(b[code]) {
			t.Errorf("%s differs between runs with the same seed", code)
		}
	}
}
