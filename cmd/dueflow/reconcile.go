package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dueflow/dueflow/internal/reconcile"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile persisted tasks with rules and client profiles",
	}

	cmd.AddCommand(reconcileClientCmd())
	cmd.AddCommand(reconcileAllCmd())
	cmd.AddCommand(reconcileChangesCmd())

	return cmd
}

func reconcileClientCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "client <client-id>",
		Short: "Reconcile one client over the default horizon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			reconciler := buildReconciler(cmd.Context(), store)

			diff, err := reconciler.ReconcileClient(cmd.Context(), args[0], reconciler.DefaultSpan())
			if err != nil {
				return fmt.Errorf("reconciliation failed: %w", err)
			}

			fmt.Printf("client %s: %d inserted, %d date-corrected, %d restored, %d soft-deleted\n",
				args[0], len(diff.ToInsert), len(diff.ToUpdateDueDate),
				len(diff.ToRestore), len(diff.ToSoftDelete))
			return nil
		},
	}
}

func reconcileAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Reconcile every client",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			clients, err := store.ListClients(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list clients: %w", err)
			}

			reconciler := buildReconciler(cmd.Context(), store)

			bar := progressbar.NewOptions(len(clients),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("Reconciling clients..."),
			)

			var failed int
			err = reconciler.ReconcileAll(cmd.Context(), func(result reconcile.ClientResult) {
				if result.Err != nil {
					failed++
				}
				_ = bar.Add(1)
			})
			_ = bar.Finish()
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return fmt.Errorf("reconciliation pass failed: %w", err)
			}

			slog.Info("Reconciliation pass finished",
				"clients", len(clients),
				"failed", failed)
			return nil
		},
	}
}

func reconcileChangesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "changes",
		Short: "Process pending client profile changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			reconciler := buildReconciler(cmd.Context(), store)

			if err := reconciler.ProcessProfileChanges(cmd.Context()); err != nil {
				return fmt.Errorf("failed to process profile changes: %w", err)
			}

			slog.Info("Profile changes processed")
			return nil
		},
	}
}
