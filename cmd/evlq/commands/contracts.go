package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/evlq/internal/contracts"
)

// contractsCmd represents the contracts command
var contractsCmd = &cobra.Command{
	Use:   "contracts [source_id]",
	Short: "등록된 데이터 계약 조회",
	Long: `Lists every registered contract, or prints one contract as JSON.

Example:
  go run ./cmd/evlq contracts
  go run ./cmd/evlq contracts entsoe`,
	Args: cobra.MaximumNArgs(1),
	RunE: runContracts,
}

func init() {
	rootCmd.AddCommand(contractsCmd)
}

func runContracts(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if len(args) == 1 {
		c, ok := a.registry.Get(args[0])
		if !ok {
			return fmt.Errorf("no contract for %s", args[0])
		}
		return PrintJSON(c)
	}

	PrintHeader("Data Contracts")
	all := a.registry.All()
	tw := newTable()
	fmt.Fprintln(tw, "SOURCE\tNAME\tSLA\tREQUIRED\tOPTIONAL\tCHECKS")
	for _, id := range a.registry.SourceIDs() {
		c := all[id]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n",
			id, c.SourceName, formatSLA(c.FreshnessSLA),
			len(c.RequiredFields), len(c.OptionalFields), len(c.QualityChecks))
	}
	return tw.Flush()
}

func formatSLA(sla contracts.FreshnessSLA) string {
	switch {
	case sla.MaxLagHours > 0:
		return strconv.FormatFloat(sla.MaxLagHours, 'f', -1, 64) + "h"
	case sla.MaxLagDays > 0:
		return strconv.FormatFloat(sla.MaxLagDays, 'f', -1, 64) + "d"
	default:
		return "-"
	}
}
