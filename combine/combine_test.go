package combine

import (
	"errors"
	"testing"

	"github.com/padraicbc/racefeat/errs"
	"github.com/padraicbc/racefeat/table"
)

var (
	I = table.IntOf
	S = table.TextOf
	N = table.Null
)

func mk(t *testing.T, cols []string, rows ...[]table.Value) *table.Table {
	t.Helper()
	tb, err := table.New(cols, rows)
	if err != nil {
		t.Fatal(err)
	}
	return tb
}

var (
	raceCols    = []string{"venue_code", "meeting", "day", "race_no"}
	entrantCols = append(append([]string(nil), raceCols...), "horse_no", "horse_id")
	metaCols    = append(append([]string(nil), raceCols...), "race_date", "post_time", "distance")
)

func entrants(t *testing.T) *table.Table {
	return mk(t, entrantCols,
		[]table.Value{I(1), I(1), S("1"), I(1), I(1), S("A")},
		[]table.Value{I(1), I(1), S("1"), I(1), I(2), S("B")},
		[]table.Value{I(5), I(2), S("3"), I(7), I(1), S("C")},
	)
}

func meta(t *testing.T) *table.Table {
	return mk(t, metaCols,
		[]table.Value{I(1), I(1), S("1"), I(1), I(20240105), I(1010), I(1600)},
	)
}

func TestCombineEntrantWithRaceMetadata(t *testing.T) {
	kyi := mk(t, []string{"venue_code", "meeting", "day", "race_no", "horse_id"},
		[]table.Value{I(1), I(1), S("1"), I(1), S("A")})
	bac := mk(t, []string{"venue_code", "meeting", "day", "race_no", "race_date"},
		[]table.Value{I(1), I(1), S("1"), I(1), I(20240105)})

	out, err := New(DefaultConfig()).Combine(map[string]*table.Table{KYI: kyi, BAC: bac})
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", out.Len())
	}
	key, ok := out.Get(0, "race_key").Text()
	if !ok || key != "20240105_01_--_1_1_01" {
		t.Fatalf("race_key = %v", out.Get(0, "race_key"))
	}
	for _, col := range kyi.Columns() {
		if !out.Get(0, col).Equal(kyi.Get(0, col)) {
			t.Errorf("%s = %v, want %v", col, out.Get(0, col), kyi.Get(0, col))
		}
	}
}

func TestCombineRequiresBaseAndRaceMetadata(t *testing.T) {
	c := New(DefaultConfig())
	tests := []struct {
		name   string
		tables map[string]*table.Table
		what   string
	}{
		{"entrant only", map[string]*table.Table{KYI: entrants(t)}, BAC},
		{"metadata only", map[string]*table.Table{BAC: meta(t)}, KYI},
		{"results only", map[string]*table.Table{SED: meta(t)}, KYI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Combine(tt.tables)
			var mr *errs.MissingRequiredDataError
			if !errors.As(err, &mr) {
				t.Fatalf("error = %v, want MissingRequiredDataError", err)
			}
			if mr.What != tt.what {
				t.Errorf("What = %q, want %q", mr.What, tt.what)
			}
		})
	}
}

func TestCombineEmptyInput(t *testing.T) {
	for _, in := range []map[string]*table.Table{nil, {}} {
		_, err := New(DefaultConfig()).Combine(in)
		var ee *errs.EmptyInputError
		if !errors.As(err, &ee) {
			t.Fatalf("error = %v, want EmptyInputError", err)
		}
	}
}

func TestCombineUnconfiguredType(t *testing.T) {
	_, err := New(DefaultConfig()).Combine(map[string]*table.Table{
		KYI: entrants(t), BAC: meta(t), "XYZ": meta(t),
	})
	var je *errs.JoinConfigurationError
	if !errors.As(err, &je) {
		t.Fatalf("error = %v, want JoinConfigurationError", err)
	}
	if je.DataType != "XYZ" {
		t.Errorf("DataType = %q", je.DataType)
	}
}

func TestCombineUnconfiguredNilTable(t *testing.T) {
	_, err := New(DefaultConfig()).Combine(map[string]*table.Table{
		KYI: entrants(t), BAC: meta(t), "XYZ": nil,
	})
	var je *errs.JoinConfigurationError
	if !errors.As(err, &je) || je.DataType != "XYZ" {
		t.Fatalf("error = %v, want JoinConfigurationError for XYZ", err)
	}
}

func TestCombineSkipsNilConfiguredTable(t *testing.T) {
	out, stats, err := New(DefaultConfig()).CombineWithStats(map[string]*table.Table{
		KYI: entrants(t), BAC: meta(t), CYB: nil,
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 3 || len(stats) != 1 {
		t.Errorf("Len() = %d, stats = %+v", out.Len(), stats)
	}
}

func TestCombineKeepsUnmatchedEntrants(t *testing.T) {
	out, err := New(DefaultConfig()).Combine(map[string]*table.Table{KYI: entrants(t), BAC: meta(t)})
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", out.Len())
	}
	if !out.Get(2, "race_key").IsMissing() || !out.Get(2, "distance").IsMissing() {
		t.Errorf("unmatched row should carry missing metadata, got %v / %v",
			out.Get(2, "race_key"), out.Get(2, "distance"))
	}
	if n, _ := out.Get(1, "distance").Int(); n != 1600 {
		t.Errorf("distance = %v", out.Get(1, "distance"))
	}
	if s, _ := out.Get(2, "horse_id").Text(); s != "C" {
		t.Errorf("row order changed: %v", out.Get(2, "horse_id"))
	}
}

func TestCombineFinishFilter(t *testing.T) {
	sed := mk(t, append(append([]string(nil), raceCols...), "horse_no", "horse_id", "race_date", "finish_pos"),
		[]table.Value{I(1), I(1), S("1"), I(1), I(1), S("A"), I(20240105), I(0)},
		[]table.Value{I(1), I(1), S("1"), I(1), I(2), S("B"), I(20240105), I(3)},
	)
	out, stats, err := New(DefaultConfig()).CombineWithStats(map[string]*table.Table{
		KYI: entrants(t), BAC: meta(t), SED: sed,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Get(0, "finish_pos").IsMissing() {
		t.Errorf("scratched runner joined: finish_pos = %v", out.Get(0, "finish_pos"))
	}
	if n, _ := out.Get(1, "finish_pos").Int(); n != 3 {
		t.Errorf("finish_pos = %v, want 3", out.Get(1, "finish_pos"))
	}
	for _, col := range []string{"race_date_SED", "horse_id_SED"} {
		if !out.Has(col) {
			t.Errorf("collision column %s missing from %v", col, out.Columns())
		}
	}
	if out.Has("venue_code_SED") || out.Has("race_no_SED") {
		t.Errorf("race columns of a race_key join leaked: %v", out.Columns())
	}
	if len(stats) != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if st := stats[1]; st.DataType != SED || st.Filtered != 1 || st.Matched != 1 {
		t.Errorf("SED stats = %+v", st)
	}
}

func TestFinishedDropsNonNumeric(t *testing.T) {
	sed := mk(t, []string{"finish_pos"},
		[]table.Value{I(1)}, []table.Value{N}, []table.Value{S("x")}, []table.Value{I(-1)}, []table.Value{S("12")})
	f := Finished(sed)
	if f.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", f.Len())
	}
}

func TestCombineFirstMatchWins(t *testing.T) {
	ukc := mk(t, []string{"horse_id", "sire_name"},
		[]table.Value{S("A"), S("first")},
		[]table.Value{S("A"), S("second")},
	)
	out, err := New(DefaultConfig()).Combine(map[string]*table.Table{KYI: entrants(t), BAC: meta(t), UKC: ukc})
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 3 {
		t.Fatalf("right-side duplicates changed row count to %d", out.Len())
	}
	if s, _ := out.Get(0, "sire_name").Text(); s != "first" {
		t.Errorf("sire_name = %v", out.Get(0, "sire_name"))
	}
	if !out.Get(1, "sire_name").IsMissing() {
		t.Errorf("unmatched sire_name = %v", out.Get(1, "sire_name"))
	}
}

func withYear(t *testing.T, tb *table.Table, year int64) *table.Table {
	t.Helper()
	ext := make([][]table.Value, tb.Len())
	for i := range ext {
		ext[i] = []table.Value{I(year)}
	}
	out, err := tb.Extend([]string{"year"}, ext)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestCombineMeetingDayWithOptionalYear(t *testing.T) {
	kab := mk(t, []string{"venue_code", "meeting", "day", "year", "turf_condition"},
		[]table.Value{I(1), I(1), S("1"), I(23), I(99)},
		[]table.Value{I(1), I(1), S("1"), I(24), I(10)},
	)
	out, err := New(DefaultConfig()).Combine(map[string]*table.Table{
		KYI: withYear(t, entrants(t), 24), BAC: withYear(t, meta(t), 24), KAB: kab,
	})
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := out.Get(0, "turf_condition").Int(); n != 10 {
		t.Errorf("turf_condition = %v, want the 2024 meeting", out.Get(0, "turf_condition"))
	}
	if key, _ := out.Get(0, "race_key").Text(); key != "20240105_01_24_1_1_01" {
		t.Errorf("race_key = %q", key)
	}
}

func TestCombineRaceKeyJoinUsesMetadataDate(t *testing.T) {
	cyb := mk(t, append(append([]string(nil), raceCols...), "horse_no", "training_eval"),
		[]table.Value{I(1), I(1), S("1"), I(1), I(2), S("A")},
		[]table.Value{I(5), I(2), S("3"), I(7), I(1), S("B")},
	)
	out, err := New(DefaultConfig()).Combine(map[string]*table.Table{KYI: entrants(t), BAC: meta(t), CYB: cyb})
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := out.Get(1, "training_eval").Text(); s != "A" {
		t.Errorf("training_eval = %v", out.Get(1, "training_eval"))
	}
	// No metadata date for race 5/2/3/7, so no race_key on either side.
	if !out.Get(2, "training_eval").IsMissing() {
		t.Errorf("training_eval joined without race metadata: %v", out.Get(2, "training_eval"))
	}
}

func TestCombineYearOnOneSide(t *testing.T) {
	sedCols := append(append([]string(nil), raceCols...), "horse_no", "finish_pos")
	sed := mk(t, sedCols, []table.Value{I(1), I(1), S("1"), I(1), I(2), I(3)})

	tests := []struct {
		name    string
		tables  map[string]*table.Table
		wantKey string
	}{
		{
			name:    "results carry a year, race tables do not",
			tables:  map[string]*table.Table{KYI: entrants(t), BAC: meta(t), SED: withYear(t, sed, 24)},
			wantKey: "20240105_01_--_1_1_01",
		},
		{
			name:    "race tables carry a year, results do not",
			tables:  map[string]*table.Table{KYI: withYear(t, entrants(t), 24), BAC: withYear(t, meta(t), 24), SED: sed},
			wantKey: "20240105_01_24_1_1_01",
		},
		{
			name:    "metadata alone carries a year",
			tables:  map[string]*table.Table{KYI: entrants(t), BAC: withYear(t, meta(t), 24), SED: withYear(t, sed, 24)},
			wantKey: "20240105_01_--_1_1_01",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, stats, err := New(DefaultConfig()).CombineWithStats(tt.tables)
			if err != nil {
				t.Fatal(err)
			}
			if key, _ := out.Get(1, "race_key").Text(); key != tt.wantKey {
				t.Errorf("race_key = %q, want %q", key, tt.wantKey)
			}
			if n, _ := out.Get(1, "finish_pos").Int(); n != 3 {
				t.Errorf("finish_pos = %v, want 3", out.Get(1, "finish_pos"))
			}
			if st := stats[len(stats)-1]; st.DataType != SED || st.Matched != 1 {
				t.Errorf("SED stats = %+v", st)
			}
		})
	}
}
