package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/dueflow/dueflow/internal/model"

	"github.com/spf13/cobra"
)

func clientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Manage client profiles",
	}

	cmd.AddCommand(clientsListCmd())
	cmd.AddCommand(clientsImportCmd())
	cmd.AddCommand(clientsChangeCmd())

	return cmd
}

func clientsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List client profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			clients, err := store.ListClients(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load clients: %w", err)
			}

			for i := range clients {
				c := &clients[i]
				fmt.Printf("%-20s %-30s %-10s %-10s vat=%-5t employees=%t\n",
					c.ID, c.Name, c.LegalForm, c.TaxRegime, c.VATPayer, c.HasEmployees)
			}
			fmt.Printf("%d clients\n", len(clients))
			return nil
		},
	}
}

func clientsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import client profiles from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			var clients []model.ClientProfile
			if err := json.Unmarshal(data, &clients); err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			for i := range clients {
				if err := store.SaveClient(cmd.Context(), &clients[i]); err != nil {
					return fmt.Errorf("failed to save client %s: %w", clients[i].ID, err)
				}
			}

			slog.Info("Imported clients", "count", len(clients))
			return nil
		},
	}
}

func clientsChangeCmd() *cobra.Command {
	var effectiveDate string

	cmd := &cobra.Command{
		Use:   "change <client-id>",
		Short: "Record a profile change for later reconciliation",
		Long: `Record that a client's profile changed as of a date. The next
'reconcile changes' pass rebuilds that client's tasks from the effective
date forward without touching completed work.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			effective, err := parseDay(effectiveDate)
			if err != nil {
				return err
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			// Reject changes for unknown clients up front.
			if _, err := store.GetClient(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to load client %s: %w", args[0], err)
			}

			if err := store.RecordChange(cmd.Context(), args[0], effective); err != nil {
				return fmt.Errorf("failed to record change: %w", err)
			}

			slog.Info("Recorded profile change",
				"client_id", args[0],
				"effective_date", effective.Format("2006-01-02"))
			return nil
		},
	}

	cmd.Flags().StringVar(&effectiveDate, "effective", "", "effective date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("effective")

	return cmd
}
