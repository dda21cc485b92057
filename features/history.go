package features

import (
	"sort"
	"time"

	"github.com/padraicbc/racefeat/racekey"
	"github.com/padraicbc/racefeat/table"
)

type start struct {
	at   int64 // unix nanos
	date time.Time
	key  string
	row  int
}

// horseRuns is one horse's history sorted by start time, with prefix counts:
// wins[n] and top3[n] cover starts[:n].
type horseRuns struct {
	starts []start
	wins   []int64
	top3   []int64
}

type horseIndex map[string]*horseRuns

// raceStart is the post time of one race; known is false when only the
// date was recorded.
type raceStart struct {
	at    time.Time
	known bool
}

type startIndex map[string]raceStart

// yearKeyed reports whether race keys carry the year: the entrant keys must
// already have one, and metadata and history must both supply it.
func yearKeyed(entrants, history, meta *table.Table) bool {
	if !history.Has(racekey.Year) || !meta.Has(racekey.Year) {
		return false
	}
	for i := 0; i < entrants.Len(); i++ {
		key, ok := entrants.Get(i, racekey.Column).Text()
		if !ok {
			continue
		}
		k, err := racekey.Parse(key)
		if err != nil {
			continue
		}
		return k.Year >= 0
	}
	return false
}

func indexStarts(meta *table.Table, withYear bool) startIndex {
	idx := make(startIndex, meta.Len())
	for i := 0; i < meta.Len(); i++ {
		date := meta.Get(i, racekey.Date)
		key, ok := racekey.FromRow(meta, i, date, withYear)
		if !ok {
			continue
		}
		at, known, ok := racekey.Start(date, meta.Get(i, racekey.PostTime))
		if !ok {
			continue
		}
		if _, dup := idx[key]; !dup {
			idx[key] = raceStart{at: at, known: known}
		}
	}
	return idx
}

// entrantStart is the reference time of a race being predicted. Without a
// known post time it is the start of the race day, so no same-day start
// can qualify as earlier.
func (s startIndex) entrantStart(key string) (time.Time, bool) {
	if key == "" {
		return time.Time{}, false
	}
	if rs, ok := s[key]; ok {
		return rs.at, true
	}
	d, ok := racekey.DateOf(key)
	return d, ok
}

// historyStart is the time of a past start. Without a known post time it is
// the end of its day for the same reason.
func (s startIndex) historyStart(key string, date table.Value) (time.Time, bool) {
	if rs, ok := s[key]; ok && rs.known {
		return rs.at, true
	}
	d, ok := racekey.ParseDate(date)
	if !ok {
		return time.Time{}, false
	}
	return d.Add(24*time.Hour - time.Nanosecond), true
}

func (e *Extractor) indexHistory(history *table.Table, starts startIndex, withYear bool) horseIndex {
	idx := make(horseIndex)
	for i := 0; i < history.Len(); i++ {
		horse := history.Get(i, e.horse).String()
		if horse == "" {
			continue
		}
		date := history.Get(i, racekey.Date)
		key, ok := racekey.FromRow(history, i, date, withYear)
		if !ok {
			continue
		}
		at, ok := starts.historyStart(key, date)
		if !ok {
			continue
		}
		d, _ := racekey.ParseDate(date)
		hr := idx[horse]
		if hr == nil {
			hr = &horseRuns{}
			idx[horse] = hr
		}
		hr.starts = append(hr.starts, start{at: at.UnixNano(), date: d, key: key, row: i})
	}

	for _, hr := range idx {
		sort.Slice(hr.starts, func(a, b int) bool {
			x, y := hr.starts[a], hr.starts[b]
			if x.at != y.at {
				return x.at < y.at
			}
			if x.key != y.key {
				return x.key < y.key
			}
			return x.row < y.row
		})
		hr.wins = make([]int64, len(hr.starts)+1)
		hr.top3 = make([]int64, len(hr.starts)+1)
		for j, st := range hr.starts {
			hr.wins[j+1], hr.top3[j+1] = hr.wins[j], hr.top3[j]
			r, ok := history.Get(st.row, rankColumn).Int()
			if !ok || r <= 0 {
				continue
			}
			if r == 1 {
				hr.wins[j+1]++
			}
			if r <= 3 {
				hr.top3[j+1]++
			}
		}
	}
	return idx
}
