package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"voldecomp/internal/sink"
	"voldecomp/pkg/model"
)

func newShowCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show SYMBOL",
		Short: "Print the daily decomposition of one symbol without writing output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.closeLog()

			rows, err := a.processor.Compute(context.Background(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return sink.JSONSaver{}.Encode(os.Stdout, rows)
			}
			outputDaily(os.Stdout, args[0], rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func outputDaily(w io.Writer, symbol string, rows []model.DailyVolatility) {
	fmt.Fprintf(w, "%s: %d trading days\n\n", symbol, len(rows))

	table := tablewriter.NewTable(w,
		tablewriter.WithHeader(model.Columns),
	)
	for _, r := range rows {
		table.Append(sink.Record(r))
	}
	table.Render()
}
