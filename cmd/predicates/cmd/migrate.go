package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/solatis/predicates/internal/core/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply rule store migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().Bool("status", false, "report migration status without applying")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	database, err := db.Open(cfg.Store.DBURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if statusOnly, _ := cmd.Flags().GetBool("status"); !statusOnly {
		if err := db.MigrateUp(cmd.Context(), database); err != nil {
			return err
		}
		slog.Info("migrations applied", slog.String("driver", database.DriverName()))
	}

	statuses, err := db.MigrateStatus(cmd.Context(), database)
	if err != nil {
		return err
	}
	for _, s := range statuses {
		state := "pending"
		if s.Applied {
			state = "applied"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-32s %s\n", s.ID, state)
	}
	return nil
}
