package cli

import (
	"fmt"

	"workshop-scheduler/cmd/bootstrap"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker (overdue booking sweep)",
	RunE:  runWorker,
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := bootstrap.New()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}

	app.Run()
	return nil
}

func runWorker(cmd *cobra.Command, args []string) error {
	app, err := bootstrap.New()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}

	if err := app.RunWorker(); err != nil {
		return fmt.Errorf("worker: %w", err)
	}
	return nil
}
