package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dueflow/dueflow/internal/model"

	"github.com/spf13/cobra"
)

func holidaysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holidays",
		Short: "Manage the jurisdiction holiday calendar",
	}

	cmd.AddCommand(holidaysListCmd())
	cmd.AddCommand(holidaysImportCmd())

	return cmd
}

func holidaysListCmd() *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List holidays for a year",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			holidays, err := store.HolidaysForYear(cmd.Context(), year)
			if err != nil {
				return fmt.Errorf("failed to load holidays: %w", err)
			}

			for _, h := range holidays {
				fmt.Printf("%s  %s\n", h.Date.Format("2006-01-02"), h.Name)
			}
			fmt.Printf("%d holidays in %d\n", len(holidays), year)
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", time.Now().UTC().Year(), "calendar year")

	return cmd
}

func holidaysImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import holidays from a JSON file",
		Long: `Import a year's holidays from a JSON array of {"date": "YYYY-MM-DD",
"name": "..."} entries. The import replaces each listed year atomically.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			var entries []struct {
				Date string `json:"date"`
				Name string `json:"name"`
			}
			if err := json.Unmarshal(data, &entries); err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}

			byYear := make(map[int][]model.Holiday)
			for _, e := range entries {
				day, err := parseDay(e.Date)
				if err != nil {
					return err
				}
				byYear[day.Year()] = append(byYear[day.Year()], model.Holiday{Date: day, Name: e.Name})
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			for year, holidays := range byYear {
				if err := store.SaveHolidays(cmd.Context(), year, holidays); err != nil {
					return fmt.Errorf("failed to save holidays for %d: %w", year, err)
				}
				slog.Info("Imported holidays", "year", year, "count", len(holidays))
			}
			return nil
		},
	}
}
