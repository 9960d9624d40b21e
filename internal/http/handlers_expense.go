package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"nozze/internal/core"
)

// expenseRequest is the create/update payload. Amounts arrive as decimal
// strings or JSON numbers ("1500", "1500.50") and are parsed to cents.
type expenseRequest struct {
	Date          string      `json:"date"`
	ItemName      string      `json:"item_name"`
	CategoryID    int64       `json:"category_id"`
	Quantity      int64       `json:"quantity"`
	UnitPrice     json.Number `json:"unit_price"`
	PaidAmount    json.Number `json:"paid_amount"`
	PaidByID      int64       `json:"paid_by_id"`
	EventID       int64       `json:"event_id"`
	PaymentModeID int64       `json:"payment_mode_id"`
	Notes         string      `json:"notes"`
}

func (req expenseRequest) toInput() (core.ExpenseInput, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.ExpenseInput{}, err
	}

	unitPrice, err := core.ParseCents(req.UnitPrice.String())
	if err != nil {
		return core.ExpenseInput{}, fmt.Errorf("unit_price: %w", core.ErrInvalidUnitPrice)
	}

	paid := int64(0)
	if req.PaidAmount != "" {
		paid, err = core.ParseCents(req.PaidAmount.String())
		if err != nil {
			return core.ExpenseInput{}, fmt.Errorf("paid_amount: %w", core.ErrInvalidPaidAmount)
		}
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	return core.ExpenseInput{
		Date:          date,
		ItemName:      sanitizeInput(req.ItemName),
		CategoryID:    req.CategoryID,
		Quantity:      quantity,
		UnitPrice:     core.Money{Cents: unitPrice},
		PaidAmount:    core.Money{Cents: paid},
		PaidByID:      req.PaidByID,
		EventID:       req.EventID,
		PaymentModeID: req.PaymentModeID,
		Notes:         sanitizeInput(req.Notes),
	}, nil
}

type expenseResponse struct {
	ID             int64  `json:"id"`
	Date           string `json:"date"`
	ItemName       string `json:"item_name"`
	CategoryID     int64  `json:"category_id"`
	Category       string `json:"category"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	TotalCents     int64  `json:"total_cents"`
	PaidCents      int64  `json:"paid_cents"`
	BalanceCents   int64  `json:"balance_cents"`
	PaidStatus     string `json:"paid_status"`
	PaidByID       int64  `json:"paid_by_id"`
	PaidBy         string `json:"paid_by"`
	EventID        int64  `json:"event_id"`
	Event          string `json:"event"`
	PaymentModeID  int64  `json:"payment_mode_id"`
	PaymentMode    string `json:"payment_mode"`
	Notes          string `json:"notes"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:             e.ID,
		Date:           e.Date.String(),
		ItemName:       e.ItemName,
		CategoryID:     e.CategoryID,
		Category:       e.Category,
		Quantity:       e.Quantity,
		UnitPriceCents: e.UnitPrice.Cents,
		TotalCents:     e.Total.Cents,
		PaidCents:      e.PaidAmount.Cents,
		BalanceCents:   e.Balance.Cents,
		PaidStatus:     string(e.Status),
		PaidByID:       e.PaidByID,
		PaidBy:         e.PaidBy,
		EventID:        e.EventID,
		Event:          e.Event,
		PaymentModeID:  e.PaymentModeID,
		PaymentMode:    e.PaymentMode,
		Notes:          e.Notes,
		CreatedAt:      e.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toExpenseResponses(items []core.Expense) []expenseResponse {
	out := make([]expenseResponse, len(items))
	for i, e := range items {
		out[i] = toExpenseResponse(e)
	}
	return out
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, owner string) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in, err := req.toInput()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	created, err := s.expenses.CreateExpense(r.Context(), owner, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateSnapshots(owner)
	writeJSON(w, http.StatusCreated, toExpenseResponse(created))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request, owner string) {
	items, err := s.repo.ListExpenses(r.Context(), owner)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponses(items))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request, owner string) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	e, err := s.repo.GetExpense(r.Context(), owner, id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(e))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request, owner string) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in, err := req.toInput()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	updated, err := s.expenses.UpdateExpense(r.Context(), owner, id, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateSnapshots(owner)
	writeJSON(w, http.StatusOK, toExpenseResponse(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, owner string) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := s.expenses.DeleteExpense(r.Context(), owner, id); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateSnapshots(owner)
	w.WriteHeader(http.StatusNoContent)
}
