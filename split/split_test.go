package split

import (
	"testing"
	"time"

	"github.com/padraicbc/racefeat/racekey"
	"github.com/padraicbc/racefeat/table"
)

func races(t *testing.T) *table.Table {
	t.Helper()
	tb, err := table.New([]string{"race_key", "race_date", "post_time", "horse_id"}, [][]table.Value{
		{table.TextOf("20240105_06_--_1_1_01"), table.IntOf(20240105), table.IntOf(1010), table.TextOf("A")},
		{table.TextOf("20240106_06_--_1_2_01"), table.IntOf(20240106), table.IntOf(1010), table.TextOf("B")},
		{table.TextOf("20240106_06_--_1_2_11"), table.IntOf(20240106), table.Null, table.TextOf("C")},
		{table.TextOf("20240107_06_--_1_3_01"), table.Null, table.Null, table.TextOf("D")},
		{table.Null, table.Null, table.Null, table.TextOf("E")},
	})
	if err != nil {
		t.Fatal(err)
	}
	return tb
}

func ids(t *table.Table) string {
	var s string
	for _, v := range t.Column("horse_id") {
		s += v.String()
	}
	return s
}

func day(s string) time.Time {
	d, err := time.ParseInLocation(time.DateOnly, s, racekey.JST)
	if err != nil {
		panic(err)
	}
	return d
}

func TestByTime(t *testing.T) {
	tests := []struct {
		name   string
		cutoff time.Time
		train  string
		test   string
	}{
		{"before everything", day("2024-01-01"), "", "ABCDE"},
		{"after everything", day("2024-02-01"), "ABCD", "E"},
		{"midnight equals date-only start", day("2024-01-06"), "A", "BCDE"},
		{"equal to post time", day("2024-01-06").Add(10*time.Hour + 10*time.Minute), "AC", "BDE"},
		{"just after post time", day("2024-01-06").Add(10*time.Hour + 11*time.Minute), "ABC", "DE"},
		{"key date fallback", day("2024-01-07").Add(time.Minute), "ABCD", "E"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := races(t)
			train, test := ByTime(in, tt.cutoff)
			if got := ids(train); got != tt.train {
				t.Errorf("train = %q, want %q", got, tt.train)
			}
			if got := ids(test); got != tt.test {
				t.Errorf("test = %q, want %q", got, tt.test)
			}
			if train.Len()+test.Len() != in.Len() {
				t.Errorf("%d + %d rows != %d", train.Len(), test.Len(), in.Len())
			}
			if len(train.Columns()) != in.Width() || len(test.Columns()) != in.Width() {
				t.Error("split changed the columns")
			}
		})
	}
}

func TestByTimeEmpty(t *testing.T) {
	in := table.Empty("race_key", "race_date")
	train, test := ByTime(in, day("2024-01-01"))
	if train.Len() != 0 || test.Len() != 0 {
		t.Fatalf("got %d/%d rows", train.Len(), test.Len())
	}
	if train.Width() != 2 || test.Width() != 2 {
		t.Error("empty split should keep columns")
	}
}

func TestPeriods(t *testing.T) {
	in := races(t)
	train, valid, test, err := Periods(in, day("2024-01-06"), day("2024-01-07"))
	if err != nil {
		t.Fatal(err)
	}
	if ids(train) != "A" || ids(valid) != "BC" || ids(test) != "DE" {
		t.Errorf("train=%q valid=%q test=%q", ids(train), ids(valid), ids(test))
	}

	if _, _, _, err := Periods(in, day("2024-01-07"), day("2024-01-06")); err == nil {
		t.Error("expected error for test cutoff before validation cutoff")
	}
}

func TestParseCutoff(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2024-01-06", want: day("2024-01-06")},
		{in: "2024-01-06T10:10:00+09:00", want: day("2024-01-06").Add(10*time.Hour + 10*time.Minute)},
		{in: "2024-01-06T01:10:00Z", want: day("2024-01-06").Add(10*time.Hour + 10*time.Minute)},
		{in: "20240106", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCutoff(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
