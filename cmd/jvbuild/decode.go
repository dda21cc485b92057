package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/padraicbc/racefeat/config"
	bundb "github.com/padraicbc/racefeat/db"
	"github.com/padraicbc/racefeat/fixedwidth"
	"github.com/padraicbc/racefeat/format"
	"github.com/padraicbc/racefeat/table"
)

func decodeCmd(cfg *config.BuildConfig) *cli.Command {
	var (
		code   string
		out    string
		saveDB bool
	)
	return &cli.Command{
		Name:      "decode",
		Usage:     "Decode fixed-width files to JSON lines",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "type",
				Aliases:     []string{"t"},
				Usage:       "data-type code (default: from each file name)",
				Destination: &code,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output file (default stdout)",
				Destination: &out,
			},
			&cli.BoolFlag{
				Name:        "db",
				Usage:       "also store the decoded records in PostgreSQL",
				Destination: &saveDB,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := newLogger()
			defer func() { _ = log.Sync() }()

			if cmd.Args().Len() == 0 {
				return cli.Exit("decode: at least one FILE is required", 1)
			}

			var w io.Writer = os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				defer f.Close()
				w = f
			}
			bw := bufio.NewWriter(w)
			defer bw.Flush()

			cat := catalog()
			decoded := map[string]*table.Table{}
			for _, path := range cmd.Args().Slice() {
				c := code
				if c == "" {
					c = codeOf(path)
				}
				def, err := cat.Load(c)
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				blob, err := os.ReadFile(path)
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				t := fixedwidth.Decode(blob, def)
				if err := writeJSONLines(bw, def, t); err != nil {
					return cli.Exit(err.Error(), 1)
				}
				log.Info("decoded", zap.String("file", path), zap.String("type", def.DataType), zap.Int("records", t.Len()))
				decoded[def.DataType] = appendRows(decoded[def.DataType], t)
			}

			if !saveDB {
				return nil
			}
			if !cfg.Configured() {
				return cli.Exit("decode: --db needs DATABASE_URL or DB_PASS", 1)
			}
			pg := bundb.Setup(&cfg.DB)
			defer pg.Close()
			if err := bundb.CreateTables(ctx, pg); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			for dt, t := range decoded {
				n, err := bundb.SaveRecords(ctx, pg, dt, t)
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				log.Info("stored", zap.String("type", dt), zap.Int("records", n))
			}
			return nil
		},
	}
}

// writeJSONLines writes one JSON object per record, fields in layout order.
func writeJSONLines(w io.Writer, def *format.Definition, t *table.Table) error {
	var buf []byte
	for i := 0; i < t.Len(); i++ {
		buf = append(buf[:0], `{"_type":`...)
		buf = strconv.AppendQuote(buf, def.DataType)
		for c, name := range t.Columns() {
			v, err := json.Marshal(t.At(i, c))
			if err != nil {
				return err
			}
			buf = append(buf, ',')
			key, _ := json.Marshal(name)
			buf = append(buf, key...)
			buf = append(buf, ':')
			buf = append(buf, v...)
		}
		buf = append(buf, '}', '\n')
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func appendRows(dst, src *table.Table) *table.Table {
	if dst == nil {
		return src
	}
	b := table.NewBuilder(dst.Columns()...)
	for i := 0; i < dst.Len(); i++ {
		b.Append(dst.Row(i)...)
	}
	for i := 0; i < src.Len(); i++ {
		b.AppendRecord(src.Record(i))
	}
	return b.Build()
}
