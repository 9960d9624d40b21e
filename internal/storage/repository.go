package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nozze/internal/core"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a record does not exist or belongs to a
	// different owner. Callers cannot distinguish the two cases.
	ErrNotFound = errors.New("record not found")

	// ErrBadReference is returned when an expense points at a category,
	// paid-by person, event or payment mode that does not exist for the owner.
	ErrBadReference = errors.New("referenced record not found")

	// ErrDuplicateName is returned when creating an owner-scoped reference
	// entity whose name the owner already uses.
	ErrDuplicateName = errors.New("name already exists")
)

// PendingSyncExpense is an expense waiting for export, paired with the sync
// version observed at read time so a concurrent edit does not get marked away.
type PendingSyncExpense struct {
	Expense core.Expense
	Version int64
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Ping reports whether the database connection is usable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const expenseColumns = `e.id, e.owner, e.expense_date, e.item_name,
	e.quantity, e.unit_price_cents, e.total_cents, e.paid_cents, e.balance_cents, e.paid_status,
	e.category_id, c.name, e.paid_by_id, pb.name, e.event_id, ev.name, e.payment_mode_id, pm.name,
	e.notes, e.created_at, e.updated_at`

const expenseJoins = `FROM expenses e
	JOIN categories c ON c.id = e.category_id
	JOIN paid_by pb ON pb.id = e.paid_by_id
	JOIN events ev ON ev.id = e.event_id
	JOIN payment_modes pm ON pm.id = e.payment_mode_id`

func scanExpense(row interface{ Scan(...any) error }) (core.Expense, error) {
	var (
		e       core.Expense
		dateStr string
		status  string
	)
	err := row.Scan(
		&e.ID, &e.Owner, &dateStr, &e.ItemName,
		&e.Quantity, &e.UnitPrice.Cents, &e.Total.Cents, &e.PaidAmount.Cents, &e.Balance.Cents, &status,
		&e.CategoryID, &e.Category, &e.PaidByID, &e.PaidBy, &e.EventID, &e.Event, &e.PaymentModeID, &e.PaymentMode,
		&e.Notes, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return core.Expense{}, err
	}
	e.Date, err = core.ParseDate(dateStr)
	if err != nil {
		return core.Expense{}, fmt.Errorf("stored expense date %q: %w", dateStr, err)
	}
	e.Status = core.PaidStatus(status)
	return e, nil
}

// ListExpenses returns all expenses for the owner, newest first.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, owner string) ([]core.Expense, error) {
	query := "SELECT " + expenseColumns + " " + expenseJoins + `
		WHERE e.owner = ?
		ORDER BY e.expense_date DESC, e.id DESC`
	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, owner string, id int64) (core.Expense, error) {
	query := "SELECT " + expenseColumns + " " + expenseJoins + " WHERE e.id = ? AND e.owner = ?"
	e, err := scanExpense(r.db.QueryRowContext(ctx, query, id, owner))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// checkReferences verifies that every reference id on the expense resolves.
// Categories and payment modes are global; paid-by and events are owner-scoped.
func (r *SQLiteRepository) checkReferences(ctx context.Context, owner string, e core.Expense) error {
	checks := []struct {
		query string
		args  []any
		name  string
	}{
		{"SELECT EXISTS (SELECT 1 FROM categories WHERE id = ?)", []any{e.CategoryID}, "category"},
		{"SELECT EXISTS (SELECT 1 FROM payment_modes WHERE id = ?)", []any{e.PaymentModeID}, "payment mode"},
		{"SELECT EXISTS (SELECT 1 FROM paid_by WHERE id = ? AND owner = ?)", []any{e.PaidByID, owner}, "paid-by"},
		{"SELECT EXISTS (SELECT 1 FROM events WHERE id = ? AND owner = ?)", []any{e.EventID, owner}, "event"},
	}
	for _, c := range checks {
		var exists bool
		if err := r.db.QueryRowContext(ctx, c.query, c.args...).Scan(&exists); err != nil {
			return fmt.Errorf("check %s reference: %w", c.name, err)
		}
		if !exists {
			return fmt.Errorf("%s: %w", c.name, ErrBadReference)
		}
	}
	return nil
}

// CreateExpense persists a derived expense and returns the stored record with
// reference names filled in.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, owner string, e core.Expense) (core.Expense, error) {
	if err := r.checkReferences(ctx, owner, e); err != nil {
		return core.Expense{}, err
	}

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (owner, expense_date, item_name, category_id, quantity,
			unit_price_cents, total_cents, paid_cents, balance_cents, paid_status,
			paid_by_id, event_id, payment_mode_id, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		owner, e.Date.String(), e.ItemName, e.CategoryID, e.Quantity,
		e.UnitPrice.Cents, e.Total.Cents, e.PaidAmount.Cents, e.Balance.Cents, string(e.Status),
		e.PaidByID, e.EventID, e.PaymentModeID, e.Notes, now, now)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense insert id: %w", err)
	}

	slog.InfoContext(ctx, "Expense created",
		"id", id,
		"owner", owner,
		"item", e.ItemName,
		"total_cents", e.Total.Cents,
		"status", e.Status)

	return r.GetExpense(ctx, owner, id)
}

// UpdateExpense replaces every user field plus the derived fields, bumps the
// sync version and requeues the record for export.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, owner string, id int64, e core.Expense) (core.Expense, error) {
	if err := r.checkReferences(ctx, owner, e); err != nil {
		return core.Expense{}, err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET expense_date = ?, item_name = ?, category_id = ?, quantity = ?,
			unit_price_cents = ?, total_cents = ?, paid_cents = ?, balance_cents = ?, paid_status = ?,
			paid_by_id = ?, event_id = ?, payment_mode_id = ?, notes = ?,
			sync_status = 'pending', sync_version = sync_version + 1, updated_at = ?
		WHERE id = ? AND owner = ?`,
		e.Date.String(), e.ItemName, e.CategoryID, e.Quantity,
		e.UnitPrice.Cents, e.Total.Cents, e.PaidAmount.Cents, e.Balance.Cents, string(e.Status),
		e.PaidByID, e.EventID, e.PaymentModeID, e.Notes,
		time.Now().UTC(), id, owner)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense rows: %w", err)
	}
	if affected == 0 {
		return core.Expense{}, ErrNotFound
	}

	slog.InfoContext(ctx, "Expense updated", "id", id, "owner", owner)
	return r.GetExpense(ctx, owner, id)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, owner string, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ? AND owner = ?", id, owner)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Expense deleted", "id", id, "owner", owner)
	return nil
}

func (r *SQLiteRepository) listReferences(ctx context.Context, query string, args ...any) ([]core.Reference, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []core.Reference
	for rows.Next() {
		var ref core.Reference
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// ListCategories returns the fixed category list seeded by migration.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Reference, error) {
	refs, err := r.listReferences(ctx, "SELECT id, name FROM categories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return refs, nil
}

// ListPaymentModes returns the fixed payment-mode list seeded by migration.
func (r *SQLiteRepository) ListPaymentModes(ctx context.Context) ([]core.Reference, error) {
	refs, err := r.listReferences(ctx, "SELECT id, name FROM payment_modes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list payment modes: %w", err)
	}
	return refs, nil
}

func (r *SQLiteRepository) ListPaidBy(ctx context.Context, owner string) ([]core.Reference, error) {
	refs, err := r.listReferences(ctx, "SELECT id, name FROM paid_by WHERE owner = ? ORDER BY id", owner)
	if err != nil {
		return nil, fmt.Errorf("list paid-by: %w", err)
	}
	return refs, nil
}

func (r *SQLiteRepository) ListEvents(ctx context.Context, owner string) ([]core.Reference, error) {
	refs, err := r.listReferences(ctx, "SELECT id, name FROM events WHERE owner = ? ORDER BY id", owner)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return refs, nil
}

func (r *SQLiteRepository) createReference(ctx context.Context, table, owner, name string) (core.Reference, error) {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO "+table+" (owner, name) VALUES (?, ?)", owner, name)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.Reference{}, ErrDuplicateName
		}
		return core.Reference{}, fmt.Errorf("insert %s: %w", table, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return core.Reference{}, fmt.Errorf("%s insert id: %w", table, err)
	}
	return core.Reference{ID: id, Name: name}, nil
}

func (r *SQLiteRepository) CreatePaidBy(ctx context.Context, owner, name string) (core.Reference, error) {
	return r.createReference(ctx, "paid_by", owner, name)
}

func (r *SQLiteRepository) CreateEvent(ctx context.Context, owner, name string) (core.Reference, error) {
	return r.createReference(ctx, "events", owner, name)
}

// SeedOwner creates the initial paid-by and event lists for a new owner.
// Names the owner already has are skipped, so re-running setup is harmless.
func (r *SQLiteRepository) SeedOwner(ctx context.Context, owner string, paidByNames, eventNames []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer tx.Rollback()

	for _, name := range paidByNames {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO paid_by (owner, name) VALUES (?, ?)", owner, name); err != nil {
			return fmt.Errorf("seed paid-by %q: %w", name, err)
		}
	}
	for _, name := range eventNames {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO events (owner, name) VALUES (?, ?)", owner, name); err != nil {
			return fmt.Errorf("seed event %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}

	slog.InfoContext(ctx, "Owner seeded",
		"owner", owner,
		"paid_by", len(paidByNames),
		"events", len(eventNames))
	return nil
}

// OwnerSeeded reports whether the owner has completed setup, defined as having
// at least one paid-by entry and one event.
func (r *SQLiteRepository) OwnerSeeded(ctx context.Context, owner string) (bool, error) {
	var seeded bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM paid_by WHERE owner = ?)
		   AND EXISTS (SELECT 1 FROM events WHERE owner = ?)`, owner, owner).Scan(&seeded)
	if err != nil {
		return false, fmt.Errorf("check owner seeded: %w", err)
	}
	return seeded, nil
}

func (r *SQLiteRepository) GetProfile(ctx context.Context, owner string) (core.Profile, error) {
	var (
		p       core.Profile
		dateStr string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT owner, partner_one, partner_two, wedding_date, phone, city,
			guest_estimate, budget_cents, created_at, updated_at
		FROM profiles WHERE owner = ?`, owner).Scan(
		&p.Owner, &p.PartnerOne, &p.PartnerTwo, &dateStr, &p.Phone, &p.City,
		&p.GuestEstimate, &p.Budget.Cents, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{}, ErrNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	if dateStr != "" {
		p.WeddingDate, err = core.ParseDate(dateStr)
		if err != nil {
			return core.Profile{}, fmt.Errorf("stored wedding date %q: %w", dateStr, err)
		}
	}
	return p, nil
}

// UpsertProfile creates or replaces the owner's profile and returns the stored
// version.
func (r *SQLiteRepository) UpsertProfile(ctx context.Context, owner string, p core.Profile) (core.Profile, error) {
	dateStr := ""
	if !p.WeddingDate.IsZero() {
		dateStr = p.WeddingDate.String()
	}
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (owner, partner_one, partner_two, wedding_date, phone, city,
			guest_estimate, budget_cents, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner) DO UPDATE SET
			partner_one = excluded.partner_one,
			partner_two = excluded.partner_two,
			wedding_date = excluded.wedding_date,
			phone = excluded.phone,
			city = excluded.city,
			guest_estimate = excluded.guest_estimate,
			budget_cents = excluded.budget_cents,
			updated_at = excluded.updated_at`,
		owner, p.PartnerOne, p.PartnerTwo, dateStr, p.Phone, p.City,
		p.GuestEstimate, p.Budget.Cents, now, now)
	if err != nil {
		return core.Profile{}, fmt.Errorf("upsert profile: %w", err)
	}

	slog.InfoContext(ctx, "Profile saved", "owner", owner)
	return r.GetProfile(ctx, owner)
}

// PendingSyncExpenses returns up to limit expenses waiting for export, oldest
// first.
func (r *SQLiteRepository) PendingSyncExpenses(ctx context.Context, limit int) ([]PendingSyncExpense, error) {
	query := "SELECT " + expenseColumns + ", e.sync_version " + expenseJoins + `
		WHERE e.sync_status = 'pending'
		ORDER BY e.id
		LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending sync expenses: %w", err)
	}
	defer rows.Close()

	var pending []PendingSyncExpense
	for rows.Next() {
		var (
			e       core.Expense
			dateStr string
			status  string
			version int64
		)
		err := rows.Scan(
			&e.ID, &e.Owner, &dateStr, &e.ItemName,
			&e.Quantity, &e.UnitPrice.Cents, &e.Total.Cents, &e.PaidAmount.Cents, &e.Balance.Cents, &status,
			&e.CategoryID, &e.Category, &e.PaidByID, &e.PaidBy, &e.EventID, &e.Event, &e.PaymentModeID, &e.PaymentMode,
			&e.Notes, &e.CreatedAt, &e.UpdatedAt, &version)
		if err != nil {
			return nil, fmt.Errorf("scan pending expense: %w", err)
		}
		e.Date, err = core.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("stored expense date %q: %w", dateStr, err)
		}
		e.Status = core.PaidStatus(status)
		pending = append(pending, PendingSyncExpense{Expense: e, Version: version})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending expenses: %w", err)
	}
	return pending, nil
}

// GetSyncExpense fetches one expense with its current sync version, without
// an owner filter. Only the export worker uses this surface.
func (r *SQLiteRepository) GetSyncExpense(ctx context.Context, id int64) (PendingSyncExpense, error) {
	query := "SELECT " + expenseColumns + ", e.sync_version " + expenseJoins + " WHERE e.id = ?"
	var (
		e       core.Expense
		dateStr string
		status  string
		version int64
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Owner, &dateStr, &e.ItemName,
		&e.Quantity, &e.UnitPrice.Cents, &e.Total.Cents, &e.PaidAmount.Cents, &e.Balance.Cents, &status,
		&e.CategoryID, &e.Category, &e.PaidByID, &e.PaidBy, &e.EventID, &e.Event, &e.PaymentModeID, &e.PaymentMode,
		&e.Notes, &e.CreatedAt, &e.UpdatedAt, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return PendingSyncExpense{}, ErrNotFound
	}
	if err != nil {
		return PendingSyncExpense{}, fmt.Errorf("get sync expense: %w", err)
	}
	e.Date, err = core.ParseDate(dateStr)
	if err != nil {
		return PendingSyncExpense{}, fmt.Errorf("stored expense date %q: %w", dateStr, err)
	}
	e.Status = core.PaidStatus(status)
	return PendingSyncExpense{Expense: e, Version: version}, nil
}

// MarkSynced records a successful export. The version guard means an edit
// made after the pending read keeps its place in the queue.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id, version int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE expenses SET sync_status = 'synced' WHERE id = ? AND sync_version = ?", id, version)
	if err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}

	slog.InfoContext(ctx, "Expense marked as synced", "id", id, "version", version)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE expenses SET sync_status = 'error' WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mark expense sync error: %w", err)
	}

	slog.WarnContext(ctx, "Expense marked with sync error", "id", id)
	return nil
}
