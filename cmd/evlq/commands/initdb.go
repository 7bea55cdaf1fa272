package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/evlq/internal/store"
	"github.com/wonny/evlq/pkg/database"
)

// initDBCmd represents the init-db command
var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "스키마 생성 + 계약 동기화",
	Long: `Creates the record store schema and mirrors every registered
contract into the data_contracts table.

PostgreSQL applies the embedded migrations; SQLite applies its schema on open.

Example:
  go run ./cmd/evlq init-db
  DATABASE_URL=postgres://localhost/evlq go run ./cmd/evlq init-db`,
	RunE: runInitDB,
}

func init() {
	rootCmd.AddCommand(initDBCmd)
}

func runInitDB(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.backend == store.BackendPostgres {
		version, err := database.Migrate(a.cfg.Database.URL)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Migrations applied (version %d)\n", version)
	} else {
		fmt.Printf("✅ SQLite schema ready at %s\n", a.cfg.Database.SQLitePath)
	}

	ids := a.registry.SourceIDs()
	all := a.registry.All()
	for _, id := range ids {
		if err := a.store.UpsertContract(ctx, all[id]); err != nil {
			return fmt.Errorf("upsert contract %s: %w", id, err)
		}
	}

	fmt.Printf("✅ %d contracts synced\n", len(ids))
	return nil
}
