// cmd/jvbuild decodes JRDB fixed-width files and builds leak-free
// previous-race feature tables from them.
//
// Usage:
//
//	go run ./cmd/jvbuild fixture --out data
//	go run ./cmd/jvbuild build --data-dir data --cutoff 2024-01-20 --out out
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/padraicbc/racefeat/config"
	"github.com/padraicbc/racefeat/format"
	applog "github.com/padraicbc/racefeat/logger"
)

var (
	formatDir string
	debug     bool
)

func main() {
	cfg := config.LoadBuild()

	app := &cli.Command{
		Name:  "jvbuild",
		Usage: "JRDB record decoder and feature builder",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format-dir",
				Usage:       "directory of record layouts overriding the embedded ones",
				Value:       cfg.FormatDir,
				Destination: &formatDir,
			},
			&cli.BoolFlag{
				Name:        "debug",
				Usage:       "debug logging",
				Value:       cfg.Debug,
				Destination: &debug,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			formatsCmd(),
			decodeCmd(cfg),
			buildCmd(cfg),
			fixtureCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *zap.Logger {
	log, err := applog.NewConsole(debug)
	if err != nil {
		panic(err)
	}
	return log
}

func catalog() *format.Catalog {
	return format.WithDir(formatDir)
}
