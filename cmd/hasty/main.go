package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/feichai0017/hasty/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hasty",
		Short: "HASTY - Indicator Tracking Table builder",
		Long: `hasty aggregates survey workbooks (participants and technology sheets)
into the Indicator Tracking Table workbook without the server or worker.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.RunCmd())
	rootCmd.AddCommand(cli.InspectCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, rootCmd, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}
