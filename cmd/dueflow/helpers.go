package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dueflow/dueflow/internal/calendar"
	"github.com/dueflow/dueflow/internal/config"
	"github.com/dueflow/dueflow/internal/generator"
	"github.com/dueflow/dueflow/internal/lifecycle"
	"github.com/dueflow/dueflow/internal/reconcile"
	"github.com/dueflow/dueflow/internal/schedule"
	"github.com/dueflow/dueflow/internal/storage"

	"github.com/spf13/viper"
)

// openStore opens the sqlite store at the configured path.
func openStore() (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// titleLocale picks the month-name locale from config.
func titleLocale() schedule.Locale {
	if viper.GetString("titles.locale") == "uk" {
		return schedule.UkrainianLocale
	}
	return schedule.EnglishLocale
}

// buildReconciler wires the generation and reconciliation pipeline over one
// open store. The holiday cache is preloaded for the surrounding years so
// forward-looking yearly rules resolve without lazy loads mid-pass.
func buildReconciler(ctx context.Context, store *storage.SQLiteStorage) *reconcile.Reconciler {
	resolver := calendar.NewResolver(store)
	year := time.Now().UTC().Year()
	resolver.Preload(ctx, year-1, year+10)
	dates := schedule.NewResolver(resolver)
	gen := generator.New(dates, titleLocale())

	cfg := reconcile.DefaultConfig()
	if v := viper.GetInt("reconcile.horizon_months"); v > 0 {
		cfg.HorizonMonths = v
	}
	if v := viper.GetInt("reconcile.workers"); v > 0 {
		cfg.Workers = v
	}

	return reconcile.New(store, store, store, store, gen, cfg)
}

// buildLifecycle wires the status engine over one open store.
func buildLifecycle(store *storage.SQLiteStorage) *lifecycle.Engine {
	cfg := lifecycle.Config{}
	if v := viper.GetInt("lifecycle.lead_days"); v > 0 {
		cfg.CompletionLeadDays = v
	}
	return lifecycle.NewEngine(store, cfg)
}

// parseDay parses a YYYY-MM-DD argument.
func parseDay(value string) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", value, err)
	}
	return day, nil
}
