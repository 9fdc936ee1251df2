package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/feichai0017/hasty/internal/aggregate"
	"github.com/feichai0017/hasty/pkg/converters"
	"github.com/feichai0017/hasty/pkg/logger"
)

// RunCmd returns the run command
func RunCmd() *cobra.Command {
	var (
		input       string
		output      string
		concurrency int
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the Indicator Tracking Table from a survey workbook",
		Long: `Read the participants and technology sheets of a survey workbook,
aggregate every commodity and write the result workbook:
- one sheet per commodity
- the Technology sheet
- the Hectare sheet

Runs locally; no queue or object storage is needed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			defer log.Sync()

			wb, err := readWorkbook(input)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Read %d participants rows from %s\n", len(wb.Participants), input)

			report, err := aggregate.Build(cmd.Context(), wb.Participants, wb.Technology,
				aggregate.WithConcurrency(concurrency),
				aggregate.WithLogger(log),
				aggregate.WithProgress(func(p aggregate.Progress) {
					fmt.Fprintf(out, "  [%d/%d] %s %s\n", p.Completed, p.Total, p.Commodity,
						color.New(color.FgGreen).Sprint("done"))
				}),
			)
			if err != nil {
				fmt.Fprintf(out, "%s %v\n", color.New(color.FgRed).Sprint("FAILED"), err)
				return fmt.Errorf("aggregation failed: %w", err)
			}

			if err := writeReport(output, report); err != nil {
				return err
			}

			fmt.Fprintf(out, "Wrote %d commodity sheets plus %s and %s to %s\n",
				len(report.Commodities), report.Technology.Name, report.Hectare.Name, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "survey workbook (.xlsx)")
	cmd.Flags().StringVarP(&output, "output", "o", converters.ReportFileName, "result workbook path")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "commodities aggregated at once")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level written to stderr")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func newLogger(level string) (logger.Logger, error) {
	log, err := logger.NewLogger(
		logger.WithLevel(level),
		logger.WithEncoding("console"),
		logger.WithOutputPaths([]string{"stderr"}),
		logger.WithErrorPaths(nil),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

func readWorkbook(path string) (*converters.Workbook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	wb, err := converters.ReadWorkbook(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return wb, nil
}

func writeReport(path string, report *aggregate.Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}

	if err := converters.NewXLSXWriter().Write(f, report); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to close output: %w", err)
	}
	return nil
}

// Execute runs the root command with a cancellable context.
func Execute(ctx context.Context, root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}
