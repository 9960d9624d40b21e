package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"nozze/internal/amqp"
	"nozze/internal/sheets"
	"nozze/internal/storage"
)

// SyncWorker mirrors expenses from SQLite into the export spreadsheet. It is
// driven two ways: AMQP messages for low latency, and a periodic sweep over
// rows still marked pending, which recovers from lost messages and worker
// downtime.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	exporter  sheets.Exporter
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, exporter sheets.Exporter, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes one queue message. The expense is re-read from
// storage, so the exported row always reflects the latest edit even when
// messages arrive out of order.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ExpenseSyncMessage) error {
	if msg.Op == amqp.OpDelete {
		if err := w.exporter.RemoveExpense(ctx, msg.ID); err != nil {
			return fmt.Errorf("remove expense from sheet: %w", err)
		}
		return nil
	}

	row, err := w.storage.GetSyncExpense(ctx, msg.ID)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted between publish and consume; the delete message will
		// clean up the sheet.
		slog.InfoContext(ctx, "Expense gone before sync, skipping", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	return w.export(ctx, row)
}

// ProcessPendingExpenses sweeps rows still marked pending and exports them.
func (w *SyncWorker) ProcessPendingExpenses(ctx context.Context) error {
	pending, err := w.storage.PendingSyncExpenses(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending expenses: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending expenses", "count", len(pending))

	for _, row := range pending {
		if err := w.export(ctx, row); err != nil {
			slog.ErrorContext(ctx, "Failed to sync expense",
				"id", row.Expense.ID, "error", err)
		}
	}
	return nil
}

// StartupSyncCheck drains the pending backlog once at worker start, with a
// larger batch than the steady-state sweep.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.PendingSyncExpenses(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending expenses for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending expenses found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending expenses on startup", "count", len(pending))

	synced, failed := 0, 0
	for _, row := range pending {
		if err := w.export(ctx, row); err != nil {
			slog.ErrorContext(ctx, "Failed to sync expense during startup",
				"id", row.Expense.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)
	return nil
}

func (w *SyncWorker) export(ctx context.Context, row storage.PendingSyncExpense) error {
	if err := w.exporter.UpsertExpense(ctx, row.Expense); err != nil {
		if markErr := w.storage.MarkSyncError(ctx, row.Expense.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error",
				"id", row.Expense.ID, "error", markErr)
		}
		return fmt.Errorf("upsert expense in sheet: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, row.Expense.ID, row.Version); err != nil {
		// The export itself worked; the sweep will retry the bookkeeping.
		slog.ErrorContext(ctx, "Failed to mark as synced",
			"id", row.Expense.ID, "error", err)
	}

	slog.InfoContext(ctx, "Expense synced",
		"id", row.Expense.ID,
		"version", row.Version,
		"item", row.Expense.ItemName)
	return nil
}
