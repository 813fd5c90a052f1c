package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dueflow/dueflow/internal/common"
	"github.com/dueflow/dueflow/internal/generator"
	"github.com/dueflow/dueflow/internal/model"
	"github.com/dueflow/dueflow/internal/service"
)

// Config holds configuration options for the reconciler.
type Config struct {
	// HorizonMonths is how far forward generation expands rules.
	HorizonMonths int
	// Workers bounds concurrent per-client reconciliations.
	Workers int
	Now     func() time.Time
}

// DefaultConfig returns the default reconciler configuration.
func DefaultConfig() Config {
	return Config{
		HorizonMonths: 12,
		Workers:       4,
	}
}

// Reconciler runs generation and diff application per client. Clients share
// no mutable state, so per-client batches run concurrently; within one
// client the diff is applied in a single store transaction.
type Reconciler struct {
	store     service.TaskStore
	catalog   service.RuleCatalog
	clients   service.ClientStore
	feed      service.ProfileChangeFeed
	generator *generator.Generator
	config    Config
}

// New creates a reconciler with the given collaborators.
func New(store service.TaskStore, catalog service.RuleCatalog, clients service.ClientStore, feed service.ProfileChangeFeed, gen *generator.Generator, config Config) *Reconciler {
	if config.HorizonMonths <= 0 {
		config.HorizonMonths = DefaultConfig().HorizonMonths
	}
	if config.Workers <= 0 {
		config.Workers = DefaultConfig().Workers
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Reconciler{
		store:     store,
		catalog:   catalog,
		clients:   clients,
		feed:      feed,
		generator: gen,
		config:    config,
	}
}

// DefaultSpan is the period range a routine pass expands: the current month
// through the configured horizon.
func (r *Reconciler) DefaultSpan() model.PeriodRange {
	now := r.config.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return model.PeriodRange{From: from, To: from.AddDate(0, r.config.HorizonMonths, -1)}
}

// ReconcileClient generates candidates for one client over the span, diffs
// them against the store, and applies the diff transactionally. The whole
// step is idempotent: rerunning with the same inputs applies an empty diff.
func (r *Reconciler) ReconcileClient(ctx context.Context, clientID string, span model.PeriodRange) (Diff, error) {
	profile, err := r.clients.GetClient(ctx, clientID)
	if err != nil {
		return Diff{}, fmt.Errorf("failed to load client %s: %w", clientID, err)
	}

	rules, err := r.catalog.ListActiveRules(ctx)
	if err != nil {
		return Diff{}, fmt.Errorf("failed to load rules: %w", err)
	}

	generated, err := r.generator.Generate(ctx, *profile, rules, span)
	if err != nil {
		return Diff{}, fmt.Errorf("failed to generate tasks for %s: %w", clientID, err)
	}

	stored, err := r.store.GetTasksByClient(ctx, clientID)
	if err != nil {
		return Diff{}, fmt.Errorf("failed to load stored tasks for %s: %w", clientID, err)
	}

	diff := Compute(stored, generated, span, r.config.Now())
	if diff.Empty() {
		slog.Debug("Client already consistent", "client_id", clientID)
		return diff, nil
	}

	if err := r.apply(ctx, diff); err != nil {
		return Diff{}, err
	}

	slog.Info("Reconciled client",
		"client_id", clientID,
		"inserted", len(diff.ToInsert),
		"date_corrected", len(diff.ToUpdateDueDate),
		"restored", len(diff.ToRestore),
		"soft_deleted", len(diff.ToSoftDelete))

	return diff, nil
}

// apply writes one client's diff inside a single store transaction so
// readers never observe a partial apply.
func (r *Reconciler) apply(ctx context.Context, diff Diff) error {
	tx, err := r.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	if len(diff.ToInsert) > 0 {
		if err := tx.InsertTasks(ctx, diff.ToInsert); err != nil {
			return fmt.Errorf("failed to insert tasks: %w", err)
		}
	}
	for _, update := range diff.ToUpdateDueDate {
		if err := tx.UpdateDueDate(ctx, update.ID, update.Nominal, update.Effective); err != nil {
			return fmt.Errorf("failed to update due date of %s: %w", update.ID, err)
		}
	}
	for _, update := range diff.ToRestore {
		if err := tx.Restore(ctx, update.ID, update.Nominal, update.Effective); err != nil {
			return fmt.Errorf("failed to restore %s: %w", update.ID, err)
		}
	}
	for _, id := range diff.ToSoftDelete {
		if err := tx.SoftDelete(ctx, id); err != nil {
			return fmt.Errorf("failed to soft-delete %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// ClientResult reports the outcome of one client in a batch pass.
type ClientResult struct {
	ClientID string
	Diff     Diff
	Err      error
}

// ReconcileAll runs a pass over every client with a bounded worker pool.
// Per-client failures are isolated: one broken client never aborts the
// batch. onResult, if set, is called as each client finishes.
func (r *Reconciler) ReconcileAll(ctx context.Context, onResult func(ClientResult)) error {
	profiles, err := r.clients.ListClients(ctx)
	if err != nil {
		return fmt.Errorf("failed to list clients: %w", err)
	}

	span := r.DefaultSpan()
	workChan := make(chan string, len(profiles))
	resultsChan := make(chan ClientResult, len(profiles))

	var wg sync.WaitGroup
	for i := 0; i < r.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for clientID := range workChan {
				diff, reconcileErr := r.ReconcileClient(ctx, clientID, span)
				resultsChan <- ClientResult{ClientID: clientID, Diff: diff, Err: reconcileErr}
			}
		}()
	}

	for _, profile := range profiles {
		workChan <- profile.ID
	}
	close(workChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	var failed int
	for result := range resultsChan {
		if result.Err != nil {
			failed++
			common.LogError(result.Err, "Client reconciliation failed", common.Fields{
				"client_id": result.ClientID,
			})
		}
		if onResult != nil {
			onResult(result)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if failed > 0 {
		slog.Warn("Reconciliation pass finished with failures",
			"clients", len(profiles),
			"failed", failed)
	}
	return nil
}

// ProcessProfileChanges drains the profile-change feed. Changes for the
// same client collapse to the earliest effective date, the client is
// reconciled from that date forward, and every change is acknowledged.
// Re-delivery is harmless: the id-based diff makes reprocessing a no-op.
func (r *Reconciler) ProcessProfileChanges(ctx context.Context) error {
	changes, err := r.feed.PendingChanges(ctx)
	if err != nil {
		return fmt.Errorf("failed to read profile changes: %w", err)
	}
	if len(changes) == 0 {
		return nil
	}

	earliest := make(map[string]time.Time)
	byClient := make(map[string][]model.ProfileChange)
	for _, change := range changes {
		effective := model.DateOnly(change.EffectiveDate)
		if current, ok := earliest[change.ClientID]; !ok || effective.Before(current) {
			earliest[change.ClientID] = effective
		}
		byClient[change.ClientID] = append(byClient[change.ClientID], change)
	}

	clientIDs := make([]string, 0, len(byClient))
	for clientID := range byClient {
		clientIDs = append(clientIDs, clientID)
	}
	sort.Strings(clientIDs)

	horizon := r.DefaultSpan().To
	for _, clientID := range clientIDs {
		if err := ctx.Err(); err != nil {
			return err
		}

		span := model.PeriodRange{From: earliest[clientID], To: horizon}
		_, reconcileErr := r.ReconcileClient(ctx, clientID, span)
		switch {
		case reconcileErr == nil:
		case errors.Is(reconcileErr, common.ErrNotFound):
			// The client was removed before the change was processed.
			// Acknowledge so the feed drains; there is nothing to rebuild.
			common.LogWarn("Stale profile change", common.Fields{
				"client_id": clientID,
				"error":     fmt.Errorf("%w: %v", common.ErrStaleReconciliation, reconcileErr),
			})
		default:
			slog.Error("Failed to process profile change, will retry",
				"client_id", clientID,
				"error", reconcileErr)
			continue // leave unacknowledged for the next pass
		}

		for _, change := range byClient[clientID] {
			if err := r.feed.MarkProcessed(ctx, change.ID); err != nil {
				return fmt.Errorf("failed to acknowledge change %d: %w", change.ID, err)
			}
		}
	}

	return nil
}
