package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/padraicbc/racefeat/cache"
	"github.com/padraicbc/racefeat/combine"
	"github.com/padraicbc/racefeat/config"
	bundb "github.com/padraicbc/racefeat/db"
	"github.com/padraicbc/racefeat/features"
	"github.com/padraicbc/racefeat/models"
	"github.com/padraicbc/racefeat/pipeline"
	"github.com/padraicbc/racefeat/split"
	"github.com/padraicbc/racefeat/table"
)

func buildCmd(cfg *config.BuildConfig) *cli.Command {
	var (
		dataDir     string
		outDir      string
		cutoff      string
		validCutoff string
		columns     string
		workers     int64
		slots       int64
		saveDB      bool
		fromDB      string
	)
	return &cli.Command{
		Name:  "build",
		Usage: "Combine record files, extract previous-race features and split by time",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "data-dir",
				Aliases:     []string{"d"},
				Usage:       "directory of raw JRDB files (KYI240106.txt, ...)",
				Value:       cfg.DataDir,
				Destination: &dataDir,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "directory for msgpack snapshots of the partitions",
				Destination: &outDir,
			},
			&cli.StringFlag{
				Name:        "cutoff",
				Usage:       "test partition starts here (2006-01-02 JST or RFC 3339)",
				Value:       cfg.SplitCutoff,
				Destination: &cutoff,
			},
			&cli.StringFlag{
				Name:        "valid-cutoff",
				Usage:       "validation partition starts here; empty for none",
				Value:       cfg.ValidCutoff,
				Destination: &validCutoff,
			},
			&cli.StringFlag{
				Name:        "columns",
				Usage:       "comma separated output allow-list; race_key is always kept",
				Value:       strings.Join(cfg.Columns, ","),
				Destination: &columns,
			},
			&cli.Int64Flag{
				Name:        "workers",
				Aliases:     []string{"w"},
				Usage:       "feature extraction workers",
				Value:       int64(cfg.Workers),
				Destination: &workers,
			},
			&cli.Int64Flag{
				Name:        "slots",
				Usage:       "previous races per entrant",
				Value:       int64(cfg.Slots),
				Destination: &slots,
			},
			&cli.BoolFlag{
				Name:        "db",
				Usage:       "store the run and its rows in PostgreSQL",
				Destination: &saveDB,
			},
			&cli.StringFlag{
				Name:        "from-db",
				Usage:       "comma separated data types to read from stored decoded records instead of files",
				Destination: &fromDB,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := newLogger()
			defer func() { _ = log.Sync() }()

			if cutoff == "" {
				return cli.Exit("build: --cutoff (or SPLIT_CUTOFF) is required", 1)
			}
			var plan pipeline.SplitPlan
			var err error
			if plan.TestFrom, err = split.ParseCutoff(cutoff); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			if validCutoff != "" {
				if plan.ValidFrom, err = split.ParseCutoff(validCutoff); err != nil {
					return cli.Exit(err.Error(), 1)
				}
			}

			cat := catalog()
			if err := cat.Warm(); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			files, skipped, err := readDataDir(dataDir, cat.Codes())
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			if len(skipped) > 0 {
				log.Debug("skipped files", zap.Strings("names", skipped))
			}

			fromDBCodes := splitList(fromDB)
			if (saveDB || len(fromDBCodes) > 0) && !cfg.Configured() {
				return cli.Exit("build: database flags need DATABASE_URL or DB_PASS", 1)
			}

			in := pipeline.Inputs{Files: files, Tables: map[string]*table.Table{}}
			var pg *bun.DB
			if saveDB || len(fromDBCodes) > 0 {
				pg = bundb.Setup(&cfg.DB)
				defer pg.Close()
				if err := bundb.CreateTables(ctx, pg); err != nil {
					return cli.Exit(err.Error(), 1)
				}
			}
			for _, code := range fromDBCodes {
				def, err := cat.Load(code)
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				t, err := bundb.LoadRecords(ctx, pg, def)
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				in.Tables[def.DataType] = t
				log.Info("loaded stored records", zap.String("type", def.DataType), zap.Int("records", t.Len()))
			}

			cols := splitList(columns)
			extractor := features.New(features.WithSlots(int(slots)), features.WithWorkers(int(workers)))
			p := pipeline.New(cat,
				combine.New(combine.DefaultConfig()),
				extractor,
				log,
				pipeline.Options{Columns: cols},
			)
			res, err := p.Run(ctx, in, plan)
			if err != nil {
				return cli.Exit(fmt.Sprintf("build: %v", err), 1)
			}

			parts := partitions(res)
			if outDir != "" {
				for name, t := range parts {
					path, err := cache.Save(outDir, name, t)
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					log.Info("snapshot written", zap.String("partition", name), zap.String("path", path), zap.Int("rows", t.Len()))
				}
			}
			if saveDB {
				run := runModel(res, extractor, cols)
				if err := bundb.SaveRun(ctx, pg, run, parts); err != nil {
					return cli.Exit(err.Error(), 1)
				}
				log.Info("run stored", zap.String("run", res.RunID.String()))
			}

			fmt.Println(res.RunID)
			return nil
		},
	}
}

func partitions(res *pipeline.Result) map[string]*table.Table {
	parts := map[string]*table.Table{split.Train: res.Train, split.Test: res.Test}
	if res.Valid != nil {
		parts[split.Valid] = res.Valid
	}
	return parts
}

// runModel records the settings the extractor actually ran with, not the
// raw flags it was given.
func runModel(res *pipeline.Result, ext *features.Extractor, cols []string) *models.Run {
	run := &models.Run{
		ID:        res.RunID,
		CreatedAt: time.Now(),
		TestFrom:  res.Plan.TestFrom,
		Slots:     ext.Slots(),
		Workers:   ext.Workers(),
		Columns:   res.Train.Columns(),
		TrainRows: res.Stats.Train,
		ValidRows: res.Stats.Valid,
		TestRows:  res.Stats.Test,
		Stats: map[string]any{
			"decoded":   res.Stats.Decoded,
			"joins":     res.Stats.Joins,
			"rows":      res.Stats.Rows,
			"elapsedMs": res.Stats.Elapsed.Milliseconds(),
			"allowList": cols,
		},
	}
	if !res.Plan.ValidFrom.IsZero() {
		vf := res.Plan.ValidFrom
		run.ValidFrom = &vf
	}
	return run
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
