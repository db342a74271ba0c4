package cli

import (
	"fmt"

	"workshop-scheduler/cmd/bootstrap"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE:  runMigrateUp,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE:  runMigrateDown,
}

var downSteps int

func init() {
	migrateDownCmd.Flags().IntVar(&downSteps, "steps", 1, "number of migrations to roll back")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	if err := bootstrap.Migrate("up", 0); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	if err := bootstrap.Migrate("down", downSteps); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
