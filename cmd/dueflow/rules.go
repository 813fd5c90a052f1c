package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/dueflow/dueflow/internal/common"
	"github.com/dueflow/dueflow/internal/model"

	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage the deadline rule catalog",
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesImportCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rules, err := store.ListActiveRules(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load rules: %w", err)
			}

			for i := range rules {
				rule := &rules[i]
				fmt.Printf("%-30s %-12s %-10s day %2d  %s\n",
					rule.ID, rule.Periodicity, rule.Kind, rule.Date.Day, rule.TitleTemplate)
			}
			fmt.Printf("%d active rules\n", len(rules))
			return nil
		},
	}
}

func rulesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import rule definitions from a JSON file",
		Long: `Import rule definitions from a JSON array. Each rule is validated
before saving; a malformed rule is skipped with a warning so the rest of
the file still imports.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			var rules []model.Rule
			if err := json.Unmarshal(data, &rules); err != nil {
				return common.NewUserError(fmt.Sprintf("%s is not a JSON array of rules", args[0]), err)
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			imported := 0
			for i := range rules {
				if err := store.SaveRule(cmd.Context(), &rules[i]); err != nil {
					slog.Warn("Skipping rule", "rule_id", rules[i].ID, "error", err)
					continue
				}
				imported++
			}

			slog.Info("Imported rules", "imported", imported, "skipped", len(rules)-imported)
			return nil
		},
	}
}
