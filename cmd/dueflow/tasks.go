package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/user"
	"time"

	"github.com/dueflow/dueflow/internal/common"
	"github.com/dueflow/dueflow/internal/lifecycle"
	"github.com/dueflow/dueflow/internal/model"

	"github.com/spf13/cobra"
)

func tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "View and manage deadline tasks",
	}

	cmd.AddCommand(tasksListCmd())
	cmd.AddCommand(tasksAddCmd())
	cmd.AddCommand(tasksCompleteCmd())
	cmd.AddCommand(tasksReopenCmd())
	cmd.AddCommand(tasksWatchCmd())

	return cmd
}

func tasksListCmd() *cobra.Command {
	var clientID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a client's tasks with derived statuses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			engine := buildLifecycle(store)
			tasks, err := engine.TasksForClient(cmd.Context(), clientID)
			if err != nil {
				return err
			}

			for _, entry := range tasks {
				due := entry.Task.CurrentDueDate.Format("2006-01-02")
				if entry.Task.IsFloating && !entry.Task.Completed() {
					due = "floating"
				}
				fmt.Printf("%-10s %-10s %s  %s\n",
					entry.Status, due, entry.Task.ID, entry.Task.Title)
			}
			fmt.Printf("%d tasks\n", len(tasks))
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client", "", "client id")
	_ = cmd.MarkFlagRequired("client")

	return cmd
}

func tasksAddCmd() *cobra.Command {
	var (
		clientID string
		kind     string
		dueDate  string
		floating bool
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a manual one-off task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			due, err := parseDay(dueDate)
			if err != nil {
				return err
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if _, err := store.GetClient(cmd.Context(), clientID); err != nil {
				return fmt.Errorf("failed to load client %s: %w", clientID, err)
			}

			task := model.NewManualTask(clientID, args[0], model.TaskKind(kind), due, floating, time.Now().UTC())
			if err := store.InsertTasks(cmd.Context(), []model.StoredTask{task}); err != nil {
				return fmt.Errorf("failed to save task: %w", err)
			}

			slog.Info("Added manual task", "task_id", task.ID, "client_id", clientID)
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client", "", "client id")
	cmd.Flags().StringVar(&kind, "kind", string(model.KindReport), "task kind (notification, payment, report)")
	cmd.Flags().StringVar(&dueDate, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&floating, "floating", false, "due 'today' until completed")
	_ = cmd.MarkFlagRequired("client")
	_ = cmd.MarkFlagRequired("due")

	return cmd
}

func tasksCompleteCmd() *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if actor == "" {
				if u, err := user.Current(); err == nil {
					actor = u.Username
				}
			}

			engine := buildLifecycle(store)
			err = engine.Complete(cmd.Context(), args[0], actor)

			blocked, isBlocked := common.IsBlocked(err)
			switch {
			case err == nil:
			case isBlocked:
				return fmt.Errorf("complete %s first: %w", blocked.PredecessorID, err)
			case errors.Is(err, common.ErrTaskLocked):
				return fmt.Errorf("the reporting period has not begun: %w", err)
			default:
				return err
			}

			slog.Info("Completed task", "task_id", args[0], "actor", actor)
			return nil
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "who completed the task (defaults to the current user)")

	return cmd
}

func tasksReopenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reopen <task-id>",
		Short: "Clear a task's completion state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			engine := buildLifecycle(store)
			if err := engine.Reopen(cmd.Context(), args[0]); err != nil {
				return err
			}

			slog.Info("Reopened task", "task_id", args[0])
			return nil
		},
	}
}

func tasksWatchCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Periodically recompute and print open task status counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			engine := buildLifecycle(store)
			monitor := lifecycle.NewMonitor(engine, store, interval, func(snapshot lifecycle.Snapshot) {
				fmt.Printf("%s  open=%d overdue=%d due_today=%d due_soon=%d upcoming=%d locked=%d\n",
					snapshot.TakenAt.Format(time.RFC3339),
					len(snapshot.Tasks),
					snapshot.Counts[model.StatusOverdue],
					snapshot.Counts[model.StatusDueToday],
					snapshot.Counts[model.StatusDueSoon],
					snapshot.Counts[model.StatusUpcoming],
					snapshot.Counts[model.StatusLocked])
			})

			err = monitor.Run(cmd.Context())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", lifecycle.DefaultMonitorInterval, "recomputation interval")

	return cmd
}
