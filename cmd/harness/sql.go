package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/qaharness/api-test-framework/internal/services"
)

var (
	sqlCmd = &cobra.Command{
		Use:   "sql",
		Short: "Run statements against an environment or builder alias",
	}

	sqlExecCmd = &cobra.Command{
		Use:   "exec <statement>",
		Short: "Run one statement and print its rows or affected count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			alias, _ := cmd.Flags().GetString("alias")

			res, err := services.NewSQLService(cfg, nil).Exec(cmd.Context(), services.Target{Env: envName(), Alias: alias}, args[0])
			if err != nil {
				return err
			}

			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	sqlExportCmd = &cobra.Command{
		Use:   "export <statement>",
		Short: "Write the rows of a read statement to a csv or xlsx file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			alias, _ := cmd.Flags().GetString("alias")
			format, _ := cmd.Flags().GetString("format")
			dir, _ := cmd.Flags().GetString("out")

			export, err := services.NewSQLService(cfg, nil).Export(cmd.Context(), services.Target{Env: envName(), Alias: alias}, args[0], format)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			path := filepath.Join(dir, export.Filename)
			if err := os.WriteFile(path, export.Data, 0o644); err != nil {
				return err
			}

			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", path, humanize.Bytes(uint64(len(export.Data))))
			return nil
		},
	}
)

func init() {
	sqlExecCmd.Flags().String("alias", "", "builder alias from web.databases; wins over --env")
	sqlExportCmd.Flags().String("alias", "", "builder alias from web.databases; wins over --env")
	sqlExportCmd.Flags().String("format", services.FormatCSV, "csv or xlsx")
	sqlExportCmd.Flags().String("out", ".", "output directory")
}

func printResult(w io.Writer, res *services.ExecResult) {
	faint := color.New(color.Faint)

	if !res.Read {
		fmt.Fprintf(w, "%d row(s) affected ", res.Affected)
		faint.Fprintf(w, "(%s)\n", res.Duration.Round(time.Millisecond))
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(res.Columns, "\t"))
	for _, row := range res.Rows {
		cells := make([]string, len(row.Values))
		for i, v := range row.Values {
			cells[i] = cellString(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "%d row(s) ", len(res.Rows))
	faint.Fprintf(w, "(%s)\n", res.Duration.Round(time.Millisecond))
	if res.Truncated {
		color.New(color.FgYellow).Fprintf(w, "result truncated to %d rows\n", len(res.Rows))
	}
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.DateTime)
	default:
		return fmt.Sprint(t)
	}
}
