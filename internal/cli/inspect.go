package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/feichai0017/hasty/internal/models"
)

// InspectCmd returns the inspect command
func InspectCmd() *cobra.Command {
	var (
		input    string
		rows     int
		techRows int
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the commodities and leading rows of a survey workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := readWorkbook(input)
			if err != nil {
				return err
			}

			preview := wb.Preview(rows, techRows)
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Commodities (%d):\n", len(preview.Commodities))
			if len(preview.Commodities) == 0 {
				fmt.Fprintf(out, "  %s\n", color.New(color.FgYellow).Sprint("(none)"))
			}
			for _, name := range preview.Commodities {
				fmt.Fprintf(out, "  - %s\n", name)
			}
			fmt.Fprintln(out)

			printSheet(out, preview.Participants)
			fmt.Fprintln(out)
			printSheet(out, preview.Technology)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "survey workbook (.xlsx)")
	cmd.Flags().IntVar(&rows, "rows", 0, "participants rows to show (0 for the default)")
	cmd.Flags().IntVar(&techRows, "tech-rows", 0, "technology rows to show (0 for the default)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func printSheet(out io.Writer, s models.SheetPreview) {
	fmt.Fprintf(out, "%s (%d of %d rows)\n",
		color.New(color.Bold).Sprint(s.Sheet), len(s.Rows), s.Total)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(s.Header, "\t"))
	for _, row := range s.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}
