package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/evlq/internal/freshness"
)

// freshnessCmd represents the freshness command
var freshnessCmd = &cobra.Command{
	Use:   "freshness",
	Short: "최신 수집 기록의 신선도 SLA 점검",
	Long: `Checks the latest fetch of every source against its freshness SLA.

Example:
  go run ./cmd/evlq freshness`,
	Args: cobra.NoArgs,
	RunE: runFreshness,
}

func init() {
	rootCmd.AddCommand(freshnessCmd)
}

func runFreshness(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	latest, err := a.store.LatestPerSource(ctx)
	if err != nil {
		return fmt.Errorf("latest fetches: %w", err)
	}

	checker := freshness.NewChecker(a.registry)

	PrintHeader("Freshness")
	tw := newTable()
	fmt.Fprintln(tw, "SOURCE\tFETCHED AT\tFRESH\tMESSAGE")
	stale := 0
	for _, r := range latest {
		ok, msg := checker.ValidateFreshness(r.SourceID, r.FetchedAt)
		if !ok {
			stale++
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.SourceID, FormatTime(r.FetchedAt), PassMark(ok), msg)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d sources, %d stale\n", len(latest), stale)
	return nil
}
