package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/evlq/internal/health"
)

// healthCmd represents the health command
var healthCmd = &cobra.Command{
	Use:   "health [source_id]",
	Short: "소스 헬스 체크 실행",
	Long: `Computes source health over the history window, stores the snapshot
and raises alerts, exactly like the scheduled source-health job.
Without an argument every registered source is checked.

Example:
  go run ./cmd/evlq health
  go run ./cmd/evlq health entsoe --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHealth,
}

var (
	healthDryRun bool
	healthJSON   bool
)

func init() {
	rootCmd.AddCommand(healthCmd)

	healthCmd.Flags().BoolVar(&healthDryRun, "dry-run", false, "compute only, no snapshot or alerts")
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "print reports as JSON")
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	ids := a.registry.SourceIDs()
	if len(args) == 1 {
		if _, ok := a.registry.Get(args[0]); !ok {
			return fmt.Errorf("no contract for %s", args[0])
		}
		ids = args
	}

	reports := make([]health.Report, 0, len(ids))
	if !healthDryRun && len(args) == 0 {
		reports, err = a.monitor.CheckAll(ctx)
	} else {
		for _, id := range ids {
			var rep health.Report
			if healthDryRun {
				rep, err = a.monitor.Compute(ctx, id)
			} else {
				rep, err = a.monitor.Check(ctx, id)
			}
			if err != nil {
				break
			}
			reports = append(reports, rep)
		}
	}
	if err != nil {
		return err
	}

	if healthJSON {
		return PrintJSON(reports)
	}

	PrintHeader("Source Health")
	tw := newTable()
	fmt.Fprintln(tw, "SOURCE\tSTATUS\tSUCCESS\tAVG MS\tQUALITY\tFRESH H\tFAILS\tLAST SUCCESS")
	for _, rep := range reports {
		h := rep.Health
		fmt.Fprintf(tw, "%s\t%s\t%.0f%%\t%.0f\t%.2f\t%.1f\t%d\t%s\n",
			h.SourceID, h.Status, h.SuccessRate24h*100, h.AvgResponseTimeMS,
			h.QualityScore, h.DataFreshnessHours, h.ConsecutiveFailures, FormatTimePtr(h.LastSuccess))
	}
	return tw.Flush()
}
