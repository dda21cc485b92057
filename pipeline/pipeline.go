// Package pipeline wires the stages together: decode raw record files,
// combine them into one entrant table, append previous-race features and
// split the result by time.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/padraicbc/racefeat/combine"
	"github.com/padraicbc/racefeat/features"
	"github.com/padraicbc/racefeat/fixedwidth"
	"github.com/padraicbc/racefeat/format"
	"github.com/padraicbc/racefeat/racekey"
	"github.com/padraicbc/racefeat/split"
	"github.com/padraicbc/racefeat/table"
)

// Options tune a Pipeline.
type Options struct {
	// Columns, when set, is the allow-list applied to every output table.
	// race_key is always kept.
	Columns []string
}

// Pipeline runs one build. It keeps no state between runs.
type Pipeline struct {
	catalog   *format.Catalog
	combiner  *combine.Combiner
	extractor *features.Extractor
	log       *zap.Logger
	opts      Options
}

func New(catalog *format.Catalog, combiner *combine.Combiner, extractor *features.Extractor, log *zap.Logger, opts Options) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		catalog:   catalog,
		combiner:  combiner,
		extractor: extractor,
		log:       log,
		opts:      opts,
	}
}

// Inputs are the raw files and pre-decoded tables for one run. A code
// present in both is decoded from Files and appended to the table rows.
type Inputs struct {
	Files  map[string][][]byte
	Tables map[string]*table.Table
	// History overrides the finishing results used for previous-race
	// features. When nil the finished SED rows of this run are used.
	History *table.Table
}

// SplitPlan sets the time cutoffs. A zero ValidFrom produces no validation
// partition.
type SplitPlan struct {
	ValidFrom time.Time
	TestFrom  time.Time
}

// Stats summarises a run for logging and persistence.
type Stats struct {
	Decoded map[string]int     `json:"decoded"`
	Joins   []combine.JoinStat `json:"joins"`
	Rows    int                `json:"rows"`
	Train   int                `json:"train"`
	Valid   int                `json:"valid"`
	Test    int                `json:"test"`
	Elapsed time.Duration      `json:"elapsed"`
}

type Result struct {
	RunID uuid.UUID
	Plan  SplitPlan
	Train *table.Table
	Valid *table.Table // nil without a validation cutoff
	Test  *table.Table
	Stats Stats
}

// Decode decodes every blob of every code with the catalog's definition
// for it. Blobs of one code are concatenated in order.
func (p *Pipeline) Decode(files map[string][][]byte) (map[string]*table.Table, error) {
	codes := make([]string, 0, len(files))
	for code := range files {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := make(map[string]*table.Table, len(files))
	for _, code := range codes {
		def, err := p.catalog.Load(code)
		if err != nil {
			return nil, err
		}
		b := table.NewBuilder(def.FieldNames()...)
		for _, blob := range files[code] {
			t := fixedwidth.Decode(blob, def)
			for i := 0; i < t.Len(); i++ {
				b.Append(t.Row(i)...)
			}
		}
		out[code] = b.Build()
		p.log.Debug("decoded", zap.String("type", code), zap.Int("files", len(files[code])), zap.Int("rows", out[code].Len()))
	}
	return out, nil
}

// Run executes decode, combine, extract and split. ctx is checked between
// stages.
func (p *Pipeline) Run(ctx context.Context, in Inputs, plan SplitPlan) (*Result, error) {
	began := time.Now()
	res := &Result{RunID: uuid.New(), Plan: plan}
	log := p.log.With(zap.String("run", res.RunID.String()))

	if plan.TestFrom.IsZero() {
		return nil, fmt.Errorf("pipeline: test cutoff required")
	}
	if !plan.ValidFrom.IsZero() && plan.TestFrom.Before(plan.ValidFrom) {
		return nil, fmt.Errorf("pipeline: test cutoff %s before validation cutoff %s",
			plan.TestFrom.Format(time.DateOnly), plan.ValidFrom.Format(time.DateOnly))
	}

	decoded, err := p.Decode(in.Files)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	tables := merge(in.Tables, decoded)
	res.Stats.Decoded = make(map[string]int, len(tables))
	for code, t := range tables {
		res.Stats.Decoded[code] = t.Len()
	}
	log.Info("inputs ready", zap.Any("rows", res.Stats.Decoded))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	combined, joins, err := p.combiner.CombineWithStats(tables)
	if err != nil {
		return nil, fmt.Errorf("combine: %w", err)
	}
	res.Stats.Joins = joins
	for _, st := range joins {
		log.Info("joined", zap.String("type", st.DataType), zap.Int("rows", st.Rows),
			zap.Int("filtered", st.Filtered), zap.Int("matched", st.Matched))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	history := in.History
	if history == nil {
		if sed := tables[combine.SED]; sed != nil {
			history = combine.Finished(sed)
		}
	}
	if history == nil {
		log.Warn("no result history; previous-race features skipped")
	}
	withFeatures, err := p.extractor.Extract(combined, history, tables[combine.BAC])
	if err != nil {
		return nil, fmt.Errorf("features: %w", err)
	}
	res.Stats.Rows = withFeatures.Len()
	log.Info("features extracted", zap.Int("rows", withFeatures.Len()),
		zap.Int("columns", withFeatures.Width()), zap.Int("workers", p.extractor.Workers()))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if plan.ValidFrom.IsZero() {
		res.Train, res.Test = split.ByTime(withFeatures, plan.TestFrom)
	} else {
		res.Train, res.Valid, res.Test, err = split.Periods(withFeatures, plan.ValidFrom, plan.TestFrom)
		if err != nil {
			return nil, err
		}
	}
	res.Train = p.project(res.Train)
	res.Valid = p.project(res.Valid)
	res.Test = p.project(res.Test)

	res.Stats.Train = res.Train.Len()
	res.Stats.Test = res.Test.Len()
	if res.Valid != nil {
		res.Stats.Valid = res.Valid.Len()
	}
	res.Stats.Elapsed = time.Since(began)
	log.Info("run complete", zap.Int("train", res.Stats.Train), zap.Int("valid", res.Stats.Valid),
		zap.Int("test", res.Stats.Test), zap.Duration("elapsed", res.Stats.Elapsed))
	return res, nil
}

func (p *Pipeline) project(t *table.Table) *table.Table {
	if t == nil || len(p.opts.Columns) == 0 {
		return t
	}
	allow := make([]string, 0, len(p.opts.Columns)+1)
	allow = append(allow, racekey.Column)
	allow = append(allow, p.opts.Columns...)
	return t.Project(allow)
}

// merge appends decoded rows to the pre-decoded table of the same code.
// Columns of the pre-decoded table win; decoded fields it lacks are dropped.
func merge(pre, decoded map[string]*table.Table) map[string]*table.Table {
	out := make(map[string]*table.Table, len(pre)+len(decoded))
	for code, t := range pre {
		if t != nil {
			out[code] = t
		}
	}
	for code, t := range decoded {
		prev, ok := out[code]
		if !ok {
			out[code] = t
			continue
		}
		b := table.NewBuilder(prev.Columns()...)
		for i := 0; i < prev.Len(); i++ {
			b.Append(prev.Row(i)...)
		}
		for i := 0; i < t.Len(); i++ {
			b.AppendRecord(t.Record(i))
		}
		out[code] = b.Build()
	}
	return out
}
