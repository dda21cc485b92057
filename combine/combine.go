// Package combine left-joins decoded record types into one wide table with
// a row per entrant per race, keyed by race_key.
package combine

import (
	"sort"
	"strconv"
	"strings"

	"github.com/padraicbc/racefeat/errs"
	"github.com/padraicbc/racefeat/racekey"
	"github.com/padraicbc/racefeat/table"
)

// JoinStat counts what one join did, for logging by callers.
type JoinStat struct {
	DataType string `json:"dataType"`
	Rows     int    `json:"rows"`
	Filtered int    `json:"filtered"`
	Matched  int    `json:"matched"`
}

// Combiner applies a Config. It holds no state between calls.
type Combiner struct {
	cfg Config
}

func New(cfg Config) *Combiner {
	return &Combiner{cfg: cfg}
}

// Combine joins tables (data-type code -> decoded table) onto the base
// entrant table. See CombineWithStats.
func (c *Combiner) Combine(tables map[string]*table.Table) (*table.Table, error) {
	out, _, err := c.CombineWithStats(tables)
	return out, err
}

// CombineWithStats starts from the base table, propagates race_key (and the
// rest of the race metadata) onto it, then left-joins every other supplied
// type in code order. Base rows are never dropped or duplicated; unmatched
// rows carry missing values for the joined columns. Colliding column names
// from the joined side are suffixed with _<code>.
func (c *Combiner) CombineWithStats(tables map[string]*table.Table) (*table.Table, []JoinStat, error) {
	if len(tables) == 0 {
		return nil, nil, &errs.EmptyInputError{}
	}
	base := tables[c.cfg.Base]
	if base == nil {
		return nil, nil, &errs.MissingRequiredDataError{What: c.cfg.Base}
	}
	meta := tables[c.cfg.RaceMeta]
	if meta == nil {
		return nil, nil, &errs.MissingRequiredDataError{What: c.cfg.RaceMeta}
	}

	var rest []string
	for code, t := range tables {
		if code == c.cfg.Base || code == c.cfg.RaceMeta {
			continue
		}
		if _, ok := c.cfg.Joins[code]; !ok {
			return nil, nil, &errs.JoinConfigurationError{DataType: code}
		}
		if t != nil {
			rest = append(rest, code)
		}
	}
	sort.Strings(rest)

	// race_key carries the year only when entrants and metadata both have
	// one; every key built below follows the same rule.
	useYear := base.Has(racekey.Year) && meta.Has(racekey.Year)
	races := newRaceIndex(meta)
	keyedMeta, err := c.withRaceKey(meta, func(i int) table.Value { return meta.Get(i, racekey.Date) }, useYear)
	if err != nil {
		return nil, nil, err
	}

	stats := make([]JoinStat, 0, len(rest)+1)
	combined, st, err := leftJoin(drop(base, racekey.Column), keyedMeta, raceJoinKeys(base, meta), c.cfg.RaceMeta)
	if err != nil {
		return nil, nil, err
	}
	stats = append(stats, st)

	for _, code := range rest {
		jc := c.cfg.Joins[code]
		right := tables[code]
		filtered := 0
		if jc.FinishedOnly {
			before := right.Len()
			right = Finished(right)
			filtered = before - right.Len()
		}
		keys := append([]string(nil), jc.Keys...)
		for _, k := range jc.OptionalKeys {
			if combined.Has(k) && right.Has(k) {
				keys = append(keys, k)
			}
		}
		if jc.RaceKey {
			r := right
			if useYear && !r.Has(racekey.Year) {
				r = races.borrowYear(r)
			}
			right, err = c.withRaceKey(r, func(i int) table.Value { return races.date(r, i) }, useYear)
			if err != nil {
				return nil, nil, err
			}
			// race_key stands in for the race columns of the joined side.
			right = drop(right, racekey.RaceColumns...)
			keys = append([]string{racekey.Column}, keys...)
		}
		for _, k := range keys {
			if !combined.Has(k) || !right.Has(k) {
				return nil, nil, &errs.JoinConfigurationError{
					DataType: code,
					Reason:   "join column " + strconv.Quote(k) + " missing",
				}
			}
		}
		var st JoinStat
		combined, st, err = leftJoin(combined, right, keys, code)
		if err != nil {
			return nil, nil, err
		}
		st.Rows = tables[code].Len()
		st.Filtered = filtered
		stats = append(stats, st)
	}
	return combined, stats, nil
}

// Finished keeps result rows whose finish position is a positive integer.
// Scratches, exclusions and non-finishers (0 or blank) are removed.
func Finished(t *table.Table) *table.Table {
	return t.Filter(func(i int) bool {
		n, ok := t.Get(i, FinishColumn).Int()
		return ok && n > 0
	})
}

// withRaceKey replaces any race_key column of t with one built from its race
// columns. dateOf supplies the date for row i when keys are dated.
func (c *Combiner) withRaceKey(t *table.Table, dateOf func(i int) table.Value, withYear bool) (*table.Table, error) {
	t = drop(t, racekey.Column)
	keys := make([][]table.Value, t.Len())
	for i := range keys {
		date := table.Null
		if c.cfg.DatedRaceKey {
			date = dateOf(i)
			if date.IsMissing() {
				keys[i] = []table.Value{table.Null}
				continue
			}
		}
		if k, ok := racekey.FromRow(t, i, date, withYear); ok {
			keys[i] = []table.Value{table.TextOf(k)}
		} else {
			keys[i] = []table.Value{table.Null}
		}
	}
	return t.Extend([]string{racekey.Column}, keys)
}

func raceJoinKeys(base, meta *table.Table) []string {
	keys := []string{racekey.Venue, racekey.Meeting, racekey.Day, racekey.RaceNo}
	if base.Has(racekey.Year) && meta.Has(racekey.Year) {
		keys = append(keys, racekey.Year)
	}
	return keys
}

// leftJoin keeps every left row in order. The first right row per key wins.
func leftJoin(left, right *table.Table, keys []string, code string) (*table.Table, JoinStat, error) {
	st := JoinStat{DataType: code, Rows: right.Len()}

	for _, k := range keys {
		if !left.Has(k) {
			return nil, st, &errs.MissingRequiredDataError{What: "column " + k + " in combined table"}
		}
		if !right.Has(k) {
			return nil, st, &errs.MissingRequiredDataError{What: "column " + k + " in " + code}
		}
	}

	index := make(map[string]int, right.Len())
	for i := 0; i < right.Len(); i++ {
		if k, ok := compositeKey(right, i, keys); ok {
			if _, seen := index[k]; !seen {
				index[k] = i
			}
		}
	}

	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}
	taken := make(map[string]bool, left.Width()+right.Width())
	for _, name := range left.Columns() {
		taken[name] = true
	}
	var names []string
	var pos []int
	for c, name := range right.Columns() {
		if isKey[name] {
			continue
		}
		out := name
		if taken[out] {
			out = name + "_" + code
		}
		taken[out] = true
		names = append(names, out)
		pos = append(pos, c)
	}

	extra := make([][]table.Value, left.Len())
	for i := range extra {
		vals := make([]table.Value, len(pos))
		if k, ok := compositeKey(left, i, keys); ok {
			if j, hit := index[k]; hit {
				for n, c := range pos {
					vals[n] = right.At(j, c)
				}
				st.Matched++
			}
		}
		extra[i] = vals
	}
	out, err := left.Extend(names, extra)
	return out, st, err
}

func compositeKey(t *table.Table, i int, keys []string) (string, bool) {
	var sb strings.Builder
	for n, k := range keys {
		v := t.Get(i, k)
		if v.IsMissing() {
			return "", false
		}
		if n > 0 {
			sb.WriteByte(0x1f)
		}
		sb.WriteString(canonical(v))
	}
	return sb.String(), true
}

// canonical makes "06" and 6 the same key; non-numeric text is kept as is.
func canonical(v table.Value) string {
	if n, ok := v.Int(); ok {
		return strconv.FormatInt(n, 10)
	}
	return strings.ToLower(v.String())
}

func drop(t *table.Table, cols ...string) *table.Table {
	gone := make(map[string]bool, len(cols))
	for _, c := range cols {
		if t.Has(c) {
			gone[c] = true
		}
	}
	if len(gone) == 0 {
		return t
	}
	keep := make([]string, 0, t.Width()-len(gone))
	for _, c := range t.Columns() {
		if !gone[c] {
			keep = append(keep, c)
		}
	}
	return t.Project(keep)
}

// raceIndex maps a race (without date) to its first race-metadata row.
type raceIndex struct {
	meta     *table.Table
	withYear map[string]int
	noYear   map[string]int
}

var (
	yearKeys   = []string{racekey.Venue, racekey.Meeting, racekey.Day, racekey.RaceNo, racekey.Year}
	noYearKeys = yearKeys[:4]
)

func newRaceIndex(meta *table.Table) *raceIndex {
	idx := &raceIndex{meta: meta, noYear: make(map[string]int, meta.Len())}
	if meta.Has(racekey.Year) {
		idx.withYear = make(map[string]int, meta.Len())
	}
	for i := 0; i < meta.Len(); i++ {
		if k, ok := compositeKey(meta, i, noYearKeys); ok {
			if _, seen := idx.noYear[k]; !seen {
				idx.noYear[k] = i
			}
		}
		if idx.withYear == nil {
			continue
		}
		if k, ok := compositeKey(meta, i, yearKeys); ok {
			if _, seen := idx.withYear[k]; !seen {
				idx.withYear[k] = i
			}
		}
	}
	return idx
}

// row finds the metadata row for row i of t, matching on year when both
// sides carry it. It returns -1 when there is none.
func (r *raceIndex) row(t *table.Table, i int) int {
	keys, idx := noYearKeys, r.noYear
	if r.withYear != nil && t.Has(racekey.Year) {
		keys, idx = yearKeys, r.withYear
	}
	k, ok := compositeKey(t, i, keys)
	if !ok {
		return -1
	}
	if j, hit := idx[k]; hit {
		return j
	}
	return -1
}

func (r *raceIndex) date(t *table.Table, i int) table.Value {
	if j := r.row(t, i); j >= 0 {
		return r.meta.Get(j, racekey.Date)
	}
	return table.Null
}

// borrowYear adds the metadata year to a table that has none, so its keys
// line up with year-qualified race keys.
func (r *raceIndex) borrowYear(t *table.Table) *table.Table {
	years := make([][]table.Value, t.Len())
	for i := range years {
		y := table.Null
		if j := r.row(t, i); j >= 0 {
			y = r.meta.Get(j, racekey.Year)
		}
		years[i] = []table.Value{y}
	}
	out, err := t.Extend([]string{racekey.Year}, years)
	if err != nil {
		return t
	}
	return out
}
