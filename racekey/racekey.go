// Package racekey builds and parses the synthetic race identifier that every
// stage joins and orders on, and derives race start times.
//
// A dated key looks like "20240106_06_24_1_1_11" (date, venue, year, meeting,
// day, race number); an undated key drops the date prefix. Dated keys sort
// chronologically by date under plain string comparison.
package racekey

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/padraicbc/racefeat/table"
)

// Column names shared by every record type that identifies a race.
const (
	Column   = "race_key"
	Venue    = "venue_code"
	Year     = "year"
	Meeting  = "meeting"
	Day      = "day"
	RaceNo   = "race_no"
	Date     = "race_date"
	PostTime = "post_time"
)

// RaceColumns are the columns identifying one race within a meeting.
var RaceColumns = []string{Venue, Year, Meeting, Day, RaceNo}

// JST is the timezone race dates and post times are recorded in.
var JST = time.FixedZone("JST", 9*60*60)

// Key is the parsed form of a race key.
type Key struct {
	Date    time.Time // zero when undated
	Venue   int
	Year    int // -1 when the source had no year column
	Meeting int
	Day     string
	Race    int
}

func (k Key) Dated() bool { return !k.Date.IsZero() }

func (k Key) String() string {
	year := "--"
	if k.Year >= 0 {
		year = fmt.Sprintf("%02d", k.Year)
	}
	s := fmt.Sprintf("%02d_%s_%d_%s_%02d", k.Venue, year, k.Meeting, k.Day, k.Race)
	if k.Dated() {
		return k.Date.Format("20060102") + "_" + s
	}
	return s
}

// Parse reads a key produced by Key.String.
func Parse(s string) (Key, error) {
	parts := strings.Split(s, "_")
	var k Key
	switch len(parts) {
	case 6:
		d, err := time.ParseInLocation("20060102", parts[0], JST)
		if err != nil {
			return Key{}, fmt.Errorf("race key %q: bad date: %w", s, err)
		}
		k.Date = d
		parts = parts[1:]
	case 5:
	default:
		return Key{}, fmt.Errorf("race key %q: want 5 or 6 parts, got %d", s, len(parts))
	}
	var err error
	if k.Venue, err = strconv.Atoi(parts[0]); err != nil {
		return Key{}, fmt.Errorf("race key %q: bad venue: %w", s, err)
	}
	if parts[1] == "--" {
		k.Year = -1
	} else if k.Year, err = strconv.Atoi(parts[1]); err != nil {
		return Key{}, fmt.Errorf("race key %q: bad year: %w", s, err)
	}
	if k.Meeting, err = strconv.Atoi(parts[2]); err != nil {
		return Key{}, fmt.Errorf("race key %q: bad meeting: %w", s, err)
	}
	k.Day = parts[3]
	if k.Race, err = strconv.Atoi(parts[4]); err != nil {
		return Key{}, fmt.Errorf("race key %q: bad race number: %w", s, err)
	}
	return k, nil
}

// DateOf returns the date prefix of a dated key.
func DateOf(s string) (time.Time, bool) {
	if len(s) < 9 || s[8] != '_' {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation("20060102", s[:8], JST)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// FromRow builds the key for row i of t from its race columns. When date is
// not missing the key is dated. Rows missing any of venue, meeting, day or
// race number have no key. The year is written only when withYear is set;
// callers set it when every table sharing the key carries a year.
func FromRow(t *table.Table, i int, date table.Value, withYear bool) (string, bool) {
	venue, ok1 := t.Get(i, Venue).Int()
	meeting, ok2 := t.Get(i, Meeting).Int()
	race, ok3 := t.Get(i, RaceNo).Int()
	day := t.Get(i, Day).String()
	if !ok1 || !ok2 || !ok3 || day == "" {
		return "", false
	}
	k := Key{Venue: int(venue), Year: -1, Meeting: int(meeting), Day: strings.ToLower(day), Race: int(race)}
	if withYear {
		if y, ok := t.Get(i, Year).Int(); ok {
			k.Year = int(y)
		}
	}
	if !date.IsMissing() {
		d, ok := ParseDate(date)
		if !ok {
			return "", false
		}
		k.Date = d
	}
	return k.String(), true
}

// ParseDate reads a YYYYMMDD value, integer or text.
func ParseDate(v table.Value) (time.Time, bool) {
	n, ok := v.Int()
	if !ok || n < 19000101 || n > 99991231 {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation("20060102", strconv.FormatInt(n, 10), JST)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Start combines a YYYYMMDD date and an HHMM post time. known is false when
// the post time is missing or malformed, in which case start is midnight.
func Start(date, post table.Value) (start time.Time, known bool, ok bool) {
	d, ok := ParseDate(date)
	if !ok {
		return time.Time{}, false, false
	}
	hm, ok := post.Int()
	if !ok || hm < 0 || hm/100 > 23 || hm%100 > 59 {
		return d, false, true
	}
	return d.Add(time.Duration(hm/100)*time.Hour + time.Duration(hm%100)*time.Minute), true, true
}
