package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
)

func formatsCmd() *cli.Command {
	return &cli.Command{
		Name:      "formats",
		Usage:     "List record layouts, or the fields of one",
		ArgsUsage: "[CODE]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cat := catalog()
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			defer w.Flush()

			if code := cmd.Args().First(); code != "" {
				def, err := cat.Load(code)
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				fmt.Fprintf(w, "%s\t%s\trecord %d bytes\t%s\n", def.DataType, def.Description, def.RecordLength, def.Encoding)
				fmt.Fprintln(w, "NAME\tSTART\tLEN\tTYPE\tDESCRIPTION")
				for _, f := range def.Fields {
					fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n", f.Name, f.Start, f.Length, f.Type, f.Description)
				}
				return nil
			}

			fmt.Fprintln(w, "CODE\tLEN\tFIELDS\tDESCRIPTION")
			for _, code := range cat.Codes() {
				def, err := cat.Load(code)
				if err != nil {
					fmt.Fprintf(w, "%s\t-\t-\t%v\n", code, err)
					continue
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", def.DataType, def.RecordLength, len(def.Fields), def.Description)
			}
			return nil
		},
	}
}
