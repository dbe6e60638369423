package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/supportdesk/internal/progress"
)

var (
	reanalyzeAll         bool
	reanalyzeConcurrency int
)

var reanalyzeCmd = &cobra.Command{
	Use:   "reanalyze [ticket-id...]",
	Short: "Re-run transcript analysis and merge the results into context summaries",
	Long: `Renders each ticket's unified transcript, sends it to the configured
analyzer and merges the result into the ticket's context summary. Pass
--all to reanalyze every ticket that has content.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !reanalyzeAll {
			return fmt.Errorf("pass one or more ticket ids, or --all")
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if !a.triage.AnalysisEnabled() {
			return fmt.Errorf("analysis is disabled; check the provider settings in %s", cfgFile)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ids := args
		if reanalyzeAll {
			if ids, err = a.stream.Tickets(ctx); err != nil {
				return err
			}
		}
		if len(ids) == 0 {
			fmt.Println("No tickets with content.")
			return nil
		}

		concurrency := reanalyzeConcurrency
		if concurrency < 1 {
			concurrency = a.cfg.Analysis.Concurrency
		}

		reporter := progress.NewReporter(os.Stderr, "Reanalyzing")
		reporter.Start(len(ids))
		res, err := a.triage.ReanalyzeAll(ctx, ids, concurrency, reporter.Update)
		reporter.Finish()
		if res != nil {
			fmt.Printf("Reanalyzed %d ticket(s), %d failed\n", res.Succeeded, res.Failed)
		}
		if err != nil {
			return err
		}
		if res.Failed > 0 {
			return fmt.Errorf("%d ticket(s) failed; rerun with -v for details", res.Failed)
		}
		return nil
	},
}

func init() {
	reanalyzeCmd.Flags().BoolVar(&reanalyzeAll, "all", false, "reanalyze every ticket with content")
	reanalyzeCmd.Flags().IntVar(&reanalyzeConcurrency, "concurrency", 0, "parallel analyses (defaults to analysis.concurrency)")
	rootCmd.AddCommand(reanalyzeCmd)
}
