// Package split partitions a combined table by race start time.
//
// A row starting strictly before the cutoff is training data; a row starting
// at or after the cutoff is test data. Rows whose start cannot be determined
// are treated as test data so they are never trained on.
package split

import (
	"fmt"
	"time"

	"github.com/padraicbc/racefeat/racekey"
	"github.com/padraicbc/racefeat/table"
)

// Partition names used when split tables are persisted.
const (
	Train = "train"
	Valid = "valid"
	Test  = "test"
)

// StartOf returns the start time of row i: race_date plus post_time when
// the row carries them, otherwise the date prefix of race_key.
func StartOf(t *table.Table, i int) (time.Time, bool) {
	if at, _, ok := racekey.Start(t.Get(i, racekey.Date), t.Get(i, racekey.PostTime)); ok {
		return at, true
	}
	if key, ok := t.Get(i, racekey.Column).Text(); ok {
		return racekey.DateOf(key)
	}
	return time.Time{}, false
}

// ByTime splits t at cutoff. Both outputs keep every column and the input
// row order; together they hold each input row exactly once.
func ByTime(t *table.Table, cutoff time.Time) (train, test *table.Table) {
	before := make([]bool, t.Len())
	for i := range before {
		at, ok := StartOf(t, i)
		before[i] = ok && at.Before(cutoff)
	}
	train = t.Filter(func(i int) bool { return before[i] })
	test = t.Filter(func(i int) bool { return !before[i] })
	return train, test
}

// Periods splits t three ways: [.., validFrom) train, [validFrom, testFrom)
// valid, [testFrom, ..) test.
func Periods(t *table.Table, validFrom, testFrom time.Time) (train, valid, test *table.Table, err error) {
	if testFrom.Before(validFrom) {
		return nil, nil, nil, fmt.Errorf("split: test cutoff %s before validation cutoff %s",
			testFrom.Format(time.DateOnly), validFrom.Format(time.DateOnly))
	}
	train, rest := ByTime(t, validFrom)
	valid, test = ByTime(rest, testFrom)
	return train, valid, test, nil
}

// ParseCutoff reads a cutoff as a JST date (2006-01-02) or an RFC 3339 time.
func ParseCutoff(s string) (time.Time, error) {
	if d, err := time.ParseInLocation(time.DateOnly, s, racekey.JST); err == nil {
		return d, nil
	}
	d, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("split: cutoff %q is neither a date nor RFC 3339", s)
	}
	return d, nil
}
