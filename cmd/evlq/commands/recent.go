package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// recentCmd represents the recent command
var recentCmd = &cobra.Command{
	Use:   "recent <source_id>",
	Short: "최근 수집 기록 조회",
	Long: `Prints the most recent fetch records of a source, newest first.

Example:
  go run ./cmd/evlq recent entsoe
  go run ./cmd/evlq recent entsoe --limit 50`,
	Args: cobra.ExactArgs(1),
	RunE: runRecent,
}

var (
	recentLimit int
	recentJSON  bool
)

func init() {
	rootCmd.AddCommand(recentCmd)

	recentCmd.Flags().IntVar(&recentLimit, "limit", 10, "number of records (max 500)")
	recentCmd.Flags().BoolVar(&recentJSON, "json", false, "print records as JSON")
}

func runRecent(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.recorder.GetRecentFetches(ctx, args[0], recentLimit)
	if err != nil {
		return err
	}
	if recentJSON {
		return PrintJSON(records)
	}

	PrintHeader(fmt.Sprintf("Recent fetches: %s (%d)", args[0], len(records)))
	tw := newTable()
	fmt.Fprintln(tw, "ID\tFETCHED AT\tSTATUS\tOK\tMS\tROWS\tSCORE\tHASH\tERROR")
	for _, r := range records {
		hash := r.ContentHash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%.0f\t%d\t%.2f\t%s\t%s\n",
			r.ID, FormatTime(r.FetchedAt), r.StatusCode, PassMark(r.Success),
			r.ResponseTimeMS, r.RowCount, r.DataQualityScore, hash, r.ErrorMessage)
	}
	return tw.Flush()
}
