// Package features derives "as of post time" history for every entrant:
// the last N starts of the same horse strictly before the race, plus
// rolling counts over all earlier starts.
package features

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/padraicbc/racefeat/errs"
	"github.com/padraicbc/racefeat/racekey"
	"github.com/padraicbc/racefeat/table"
)

const (
	DefaultSlots   = 5
	DefaultWorkers = 4
	HorseColumn    = "horse_id"
	rankColumn     = "finish_pos"
)

// SlotField copies history column Source into prev{i}_{Name}.
type SlotField struct {
	Name   string
	Source string
}

// DefaultSlotFields are copied from result history into every slot, after
// the derived race_key and days_ago.
var DefaultSlotFields = []SlotField{
	{Name: "rank", Source: "finish_pos"},
	{Name: "time", Source: "finish_time"},
	{Name: "distance", Source: "distance"},
	{Name: "surface", Source: "surface"},
	{Name: "track_condition", Source: "track_condition"},
	{Name: "popularity", Source: "popularity"},
	{Name: "odds", Source: "odds"},
	{Name: "weight", Source: "carried_weight"},
}

// Extractor computes previous-race slots. It is safe for concurrent use.
type Extractor struct {
	slots   int
	workers int
	horse   string
	fields  []SlotField
}

type Option func(*Extractor)

// WithSlots sets how many previous starts are materialized.
func WithSlots(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.slots = n
		}
	}
}

// WithWorkers sets extraction parallelism; values below 1 mean one worker.
func WithWorkers(n int) Option {
	return func(e *Extractor) {
		if n < 1 {
			n = 1
		}
		e.workers = n
	}
}

func WithSlotFields(fields []SlotField) Option {
	return func(e *Extractor) { e.fields = append([]SlotField(nil), fields...) }
}

// WithHorseColumn names the column identifying a horse in both tables.
func WithHorseColumn(col string) Option {
	return func(e *Extractor) { e.horse = col }
}

func New(opts ...Option) *Extractor {
	e := &Extractor{
		slots:   DefaultSlots,
		workers: DefaultWorkers,
		horse:   HorseColumn,
		fields:  DefaultSlotFields,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Extractor) Slots() int   { return e.slots }
func (e *Extractor) Workers() int { return e.workers }

// SlotColumn names field of previous-race slot i (1-based).
func SlotColumn(i int, field string) string {
	return fmt.Sprintf("prev%d_%s", i, field)
}

// Columns lists the feature columns Extract appends, in order.
func (e *Extractor) Columns() []string {
	cols := make([]string, 0, e.slots*(len(e.fields)+2)+len(rollingColumns))
	for i := 1; i <= e.slots; i++ {
		cols = append(cols, SlotColumn(i, "race_key"), SlotColumn(i, "days_ago"))
		for _, f := range e.fields {
			cols = append(cols, SlotColumn(i, f.Name))
		}
	}
	return append(cols, rollingColumns...)
}

var rollingColumns = []string{"hist_starts", "hist_wins", "hist_top3", "hist_mean_rank_x100", "days_since_last"}

// Extract appends previous-race features to entrants.
//
// For an entrant starting at T, the candidates are the history rows of the
// same horse starting strictly before T, most recent first; slot i takes the
// i-th candidate. Starts at or after T, including the entrant's own race,
// are never used. raceMeta supplies post times and is required; a nil
// history returns entrants unchanged.
//
// Output is identical for any worker count.
func (e *Extractor) Extract(entrants, history, raceMeta *table.Table) (*table.Table, error) {
	if raceMeta == nil {
		return nil, &errs.MissingRequiredDataError{What: "race-metadata required"}
	}
	if entrants == nil {
		return nil, &errs.MissingRequiredDataError{What: "entrants required"}
	}
	if history == nil {
		return entrants, nil
	}
	for _, c := range []string{racekey.Column, e.horse} {
		if !entrants.Has(c) {
			return nil, errs.MissingData("entrant column %s", c)
		}
	}
	for _, c := range []string{e.horse, racekey.Date} {
		if !history.Has(c) {
			return nil, errs.MissingData("history column %s", c)
		}
	}

	useYear := yearKeyed(entrants, history, raceMeta)
	starts := indexStarts(raceMeta, useYear)
	idx := e.indexHistory(history, starts, useYear)

	out := make([][]table.Value, entrants.Len())
	e.run(entrants.Len(), func(i int) {
		out[i] = e.row(entrants, i, history, idx, starts)
	})
	return entrants.Extend(e.Columns(), out)
}

// run calls fn for every row index, fanning contiguous shards out to the
// configured number of workers. Each index is visited exactly once.
func (e *Extractor) run(n int, fn func(i int)) {
	workers := e.workers
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	shard := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += shard {
		hi := min(lo+shard, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				fn(i)
			}
		}(lo, hi)
	}
	wg.Wait()
}

func (e *Extractor) row(entrants *table.Table, i int, history *table.Table, idx horseIndex, starts startIndex) []table.Value {
	width := e.slots*(len(e.fields)+2) + len(rollingColumns)
	horse := entrants.Get(i, e.horse).String()
	key, _ := entrants.Get(i, racekey.Column).Text()
	at, ok := starts.entrantStart(key)
	if horse == "" || !ok {
		return make([]table.Value, width)
	}

	vals := make([]table.Value, 0, width)
	runs := idx[horse]
	if runs == nil {
		runs = noRuns
	}
	// Leftmost insertion point of `at`: everything before it is strictly earlier.
	n := sort.Search(len(runs.starts), func(j int) bool { return runs.starts[j].at >= at.UnixNano() })

	ranks := make([]int64, 0, e.slots)
	for s := 1; s <= e.slots; s++ {
		j := n - s
		if j < 0 {
			vals = append(vals, make([]table.Value, len(e.fields)+2)...)
			continue
		}
		st := runs.starts[j]
		vals = append(vals, table.TextOf(st.key), table.IntOf(daysBetween(st.date, at)))
		for _, f := range e.fields {
			vals = append(vals, history.Get(st.row, f.Source))
		}
		if r, ok := history.Get(st.row, rankColumn).Int(); ok && r > 0 {
			ranks = append(ranks, r)
		}
	}

	vals = append(vals,
		table.IntOf(int64(n)),
		table.IntOf(runs.wins[n]),
		table.IntOf(runs.top3[n]),
		meanX100(ranks),
	)
	if n > 0 {
		vals = append(vals, table.IntOf(daysBetween(runs.starts[n-1].date, at)))
	} else {
		vals = append(vals, table.Null)
	}
	return vals
}

var noRuns = &horseRuns{wins: []int64{0}, top3: []int64{0}}

func meanX100(xs []int64) table.Value {
	if len(xs) == 0 {
		return table.Null
	}
	var sum int64
	for _, x := range xs {
		sum += x
	}
	return table.IntOf((sum*100 + int64(len(xs))/2) / int64(len(xs)))
}

// daysBetween counts calendar days from a to b in JST.
func daysBetween(a, b time.Time) int64 {
	ay, am, ad := a.In(racekey.JST).Date()
	by, bm, bd := b.In(racekey.JST).Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int64(db.Sub(da) / (24 * time.Hour))
}
