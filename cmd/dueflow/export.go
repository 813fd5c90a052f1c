package main

import (
	"fmt"
	"log/slog"

	"github.com/dueflow/dueflow/internal/config"
	"github.com/dueflow/dueflow/internal/lifecycle"
	"github.com/dueflow/dueflow/internal/model"
	"github.com/dueflow/dueflow/internal/service"
	"github.com/dueflow/dueflow/internal/sheets"

	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	var openOnly bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the deadline calendar to Google Sheets",
		Long: `Export every client's tasks with derived statuses to the configured
Google Sheets spreadsheet. Requires sheets credentials in the config file
or environment.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sheetsConfig, err := config.LoadSheetsConfig()
			if err != nil {
				return fmt.Errorf("failed to load sheets config: %w", err)
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			profiles, err := store.ListClients(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list clients: %w", err)
			}
			clients := make(map[string]model.ClientProfile, len(profiles))
			for _, profile := range profiles {
				clients[profile.ID] = profile
			}

			stored, err := store.GetTasks(cmd.Context(), service.TaskFilter{OnlyOpen: openOnly})
			if err != nil {
				return fmt.Errorf("failed to load tasks: %w", err)
			}

			engine := buildLifecycle(store)
			tasks := make([]lifecycle.TaskWithStatus, 0, len(stored))
			for i := range stored {
				tasks = append(tasks, lifecycle.TaskWithStatus{
					Task:   stored[i],
					Status: engine.Status(&stored[i]),
				})
			}

			writer, err := sheets.NewWriter(cmd.Context(), *sheetsConfig, slog.Default())
			if err != nil {
				return fmt.Errorf("failed to create sheets writer: %w", err)
			}

			if err := writer.Write(cmd.Context(), tasks, clients); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			slog.Info("Exported calendar", "tasks", len(tasks), "clients", len(clients))
			return nil
		},
	}

	cmd.Flags().BoolVar(&openOnly, "open-only", false, "export only open tasks")

	return cmd
}
