package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/evlq/internal/contracts"
)

// alertsCmd represents the alerts command group
var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "알림 조회 및 해결",
	Long: `Lists alerts or resolves one.

Example:
  go run ./cmd/evlq alerts list --status open
  go run ./cmd/evlq alerts resolve 42`,
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "알림 목록",
	Args:  cobra.NoArgs,
	RunE:  runAlertsList,
}

var alertsResolveCmd = &cobra.Command{
	Use:   "resolve <id>",
	Short: "알림 해결 처리",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlertsResolve,
}

var (
	alertStatus string
	alertLimit  int
)

func init() {
	rootCmd.AddCommand(alertsCmd)
	alertsCmd.AddCommand(alertsListCmd)
	alertsCmd.AddCommand(alertsResolveCmd)

	alertsListCmd.Flags().StringVar(&alertStatus, "status", "open", "open|acknowledged|resolved|all")
	alertsListCmd.Flags().IntVar(&alertLimit, "limit", 50, "number of alerts (max 500)")
}

func runAlertsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var status contracts.AlertStatus
	switch alertStatus {
	case "all":
	case string(contracts.AlertOpen), string(contracts.AlertAcknowledged), string(contracts.AlertResolved):
		status = contracts.AlertStatus(alertStatus)
	default:
		return fmt.Errorf("invalid status %q", alertStatus)
	}

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	alerts, err := a.recorder.ListAlerts(ctx, status, alertLimit)
	if err != nil {
		return err
	}

	PrintHeader(fmt.Sprintf("Alerts (%d)", len(alerts)))
	tw := newTable()
	fmt.Fprintln(tw, "ID\tCREATED\tSEVERITY\tTYPE\tSOURCE\tSTATUS\tMESSAGE")
	for _, al := range alerts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			al.ID, FormatTime(al.CreatedAt), al.Severity, al.AlertType, al.SourceID, al.Status, al.Message)
	}
	return tw.Flush()
}

func runAlertsResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid alert id %q", args[0])
	}

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.recorder.ResolveAlert(ctx, id); err != nil {
		return err
	}
	fmt.Printf("✅ Alert #%d resolved\n", id)
	return nil
}
