// Package memory is an in-process Exporter used in tests and when the worker
// runs without spreadsheet credentials.
package memory

import (
	"context"
	"sync"

	"nozze/internal/core"
	ports "nozze/internal/sheets"
)

type Exporter struct {
	mu   sync.Mutex
	rows map[int64]core.Expense
}

var _ ports.Exporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{rows: make(map[int64]core.Expense)}
}

func (m *Exporter) UpsertExpense(ctx context.Context, e core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[e.ID] = e
	return nil
}

func (m *Exporter) RemoveExpense(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

// Row returns the exported row for id, if present.
func (m *Exporter) Row(id int64) (core.Expense, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	return e, ok
}

// Len returns the number of exported rows.
func (m *Exporter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
