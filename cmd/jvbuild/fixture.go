package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/padraicbc/racefeat/fixture"
	"github.com/padraicbc/racefeat/split"
)

func fixtureCmd() *cli.Command {
	var (
		out   string
		start string
		days  int64
		races int64
		seed  int64
	)
	defaults := fixture.DefaultOptions()
	return &cli.Command{
		Name:  "fixture",
		Usage: "Write a generated season of JRDB files for trying the build",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output directory",
				Value:       "data",
				Destination: &out,
			},
			&cli.StringFlag{
				Name:        "start",
				Usage:       "first race day (2006-01-02)",
				Value:       defaults.Start.Format("2006-01-02"),
				Destination: &start,
			},
			&cli.Int64Flag{
				Name:        "days",
				Value:       int64(defaults.Days),
				Destination: &days,
			},
			&cli.Int64Flag{
				Name:        "races",
				Usage:       "races per day",
				Value:       int64(defaults.RacesPerDay),
				Destination: &races,
			},
			&cli.Int64Flag{
				Name:        "seed",
				Value:       defaults.Seed,
				Destination: &seed,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := newLogger()
			defer func() { _ = log.Sync() }()

			o := defaults
			first, err := split.ParseCutoff(start)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			o.Start, o.Days, o.RacesPerDay, o.Seed = first, int(days), int(races), seed

			blobs, err := fixture.Encode(catalog(), fixture.Generate(o))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			if err := os.MkdirAll(out, 0o755); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			for code, b := range blobs {
				path := filepath.Join(out, fmt.Sprintf("%s%s.txt", code, o.Start.Format("060102")))
				if err := os.WriteFile(path, b, 0o644); err != nil {
					return cli.Exit(err.Error(), 1)
				}
				log.Info("wrote", zap.String("path", path), zap.Int("bytes", len(b)))
			}
			return nil
		},
	}
}
