package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qaharness/api-test-framework/pkg/cases"
)

var runCmd = &cobra.Command{
	Use:   "run <suite.yaml>...",
	Short: "Run case suites and write an xlsx report per suite",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSuites,
}

func init() {
	runCmd.Flags().Int("workers", 0, "override the suite's worker count")
	runCmd.Flags().String("report-dir", "", "report directory (default <project root>/reports)")
	runCmd.Flags().Bool("no-report", false, "do not write xlsx reports")
}

func runSuites(cmd *cobra.Command, args []string) error {
	log := zap.S().Named("cmd")
	w := cmd.OutOrStdout()

	var opts []cases.Option
	if n, _ := cmd.Flags().GetInt("workers"); n > 0 {
		opts = append(opts, cases.WithWorkers(n))
	}
	runner := cases.NewRunner(cfg, opts...)

	reportDir, _ := cmd.Flags().GetString("report-dir")
	if reportDir == "" {
		reportDir = filepath.Join(cfg.ProjectRoot, "reports")
	}
	noReport, _ := cmd.Flags().GetBool("no-report")

	failed := 0
	for _, path := range args {
		suite, err := cases.Load(path)
		if err != nil {
			return err
		}

		report, err := runner.Run(cmd.Context(), suite, envName())
		if err != nil {
			return fmt.Errorf("suite %s: %w", suite.Name, err)
		}
		printReport(w, report)

		if !noReport {
			if err := os.MkdirAll(reportDir, 0o755); err != nil {
				return err
			}
			out := cases.DefaultReportPath(reportDir, suite.Name)
			if err := report.WriteXLSX(out); err != nil {
				return err
			}
			log.Infow("report written", "suite", suite.Name, "path", out)
			color.New(color.Faint).Fprintf(w, "report: %s\n", out)
		}

		failed += report.Failed
	}

	if failed > 0 {
		return fmt.Errorf("%d case(s) failed", failed)
	}
	return nil
}

func printReport(w io.Writer, r *cases.Report) {
	color.New(color.Bold).Fprintf(w, "%s (env %s)\n", r.Suite, r.Env)

	for _, res := range r.Results {
		var c *color.Color
		switch res.Outcome() {
		case "PASS":
			c = color.New(color.FgGreen)
		case "SKIP":
			c = color.New(color.FgYellow)
		default:
			c = color.New(color.FgRed)
		}
		c.Fprintf(w, "  %-4s", res.Outcome())
		fmt.Fprintf(w, " %s (%s)\n", res.Case, res.Duration.Round(time.Millisecond))
		for _, f := range res.Failures {
			fmt.Fprintf(w, "       - %s\n", f)
		}
	}

	summary := color.New(color.FgGreen, color.Bold)
	if !r.OK() {
		summary = color.New(color.FgRed, color.Bold)
	}
	summary.Fprintf(w, "%d passed, %d failed, %d skipped", r.Passed, r.Failed, r.Skipped)
	fmt.Fprintf(w, " in %s\n\n", r.Duration.Round(time.Millisecond))
}
