package services

import (
	"context"
	"fmt"
	"log/slog"

	"nozze/internal/core"
	"nozze/internal/storage"
)

// SyncPublisher queues export notifications. Satisfied by *amqp.Client; nil
// disables publishing entirely, which is the single-node deployment mode.
type SyncPublisher interface {
	PublishExpenseUpsert(ctx context.Context, id, version int64) error
	PublishExpenseDelete(ctx context.Context, id int64) error
}

// ExpenseService orchestrates expense mutations across SQLite and the export
// queue. Persistence always wins: a failed publish is logged and the request
// still succeeds, because the periodic sweep in the worker picks the row up
// from its pending sync status.
type ExpenseService struct {
	storage   *storage.SQLiteRepository
	publisher SyncPublisher
}

func NewExpenseService(storage *storage.SQLiteRepository, publisher SyncPublisher) *ExpenseService {
	return &ExpenseService{
		storage:   storage,
		publisher: publisher,
	}
}

// CreateExpense validates and derives the input, saves it, and queues it for
// export.
func (s *ExpenseService) CreateExpense(ctx context.Context, owner string, in core.ExpenseInput) (core.Expense, error) {
	e, err := core.NewExpense(in)
	if err != nil {
		return core.Expense{}, err
	}

	created, err := s.storage.CreateExpense(ctx, owner, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	// New rows start at sync version 1.
	s.publishUpsert(ctx, created.ID, 1)
	return created, nil
}

// UpdateExpense re-derives every field from the new input and requeues the
// record for export.
func (s *ExpenseService) UpdateExpense(ctx context.Context, owner string, id int64, in core.ExpenseInput) (core.Expense, error) {
	e, err := core.NewExpense(in)
	if err != nil {
		return core.Expense{}, err
	}

	updated, err := s.storage.UpdateExpense(ctx, owner, id, e)
	if err != nil {
		return core.Expense{}, err
	}

	version := int64(0)
	if row, err := s.storage.GetSyncExpense(ctx, id); err == nil {
		version = row.Version
	}
	s.publishUpsert(ctx, id, version)
	return updated, nil
}

// DeleteExpense removes the record and queues removal from the export sheet.
func (s *ExpenseService) DeleteExpense(ctx context.Context, owner string, id int64) error {
	if err := s.storage.DeleteExpense(ctx, owner, id); err != nil {
		return err
	}

	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.PublishExpenseDelete(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message", "id", id, "error", err)
	}
	return nil
}

func (s *ExpenseService) publishUpsert(ctx context.Context, id, version int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseUpsert(ctx, id, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
}
