package http

import (
	"fmt"
	"net/http"
	"testing"
)

// setupOwner runs the onboarding flow and returns ids usable in expense
// payloads: category, paid-by, event, payment mode.
func setupOwner(t *testing.T, f *fixture) (categoryID, paidByID, eventID, modeID int64) {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/api/setup", setupRequest{
		PaidBy: []string{"Bride", "Groom"},
		Events: []string{"Reception", "Ceremony"},
	}, f.token)
	if rec.Code != http.StatusOK {
		t.Fatalf("setup status = %d: %s", rec.Code, rec.Body.String())
	}

	cats := decodeBody[[]referenceResponse](t, f.do(t, http.MethodGet, "/api/categories", nil, f.token))
	people := decodeBody[[]referenceResponse](t, f.do(t, http.MethodGet, "/api/paid-by", nil, f.token))
	events := decodeBody[[]referenceResponse](t, f.do(t, http.MethodGet, "/api/events", nil, f.token))
	modes := decodeBody[[]referenceResponse](t, f.do(t, http.MethodGet, "/api/payment-modes", nil, f.token))
	if len(cats) == 0 || len(people) == 0 || len(events) == 0 || len(modes) == 0 {
		t.Fatal("reference lists empty after setup")
	}
	return cats[0].ID, people[0].ID, events[0].ID, modes[0].ID
}

func expensePayload(categoryID, paidByID, eventID, modeID int64, price, paid string) map[string]any {
	return map[string]any{
		"date":            "2026-05-10",
		"item_name":       "Banquet hall",
		"category_id":     categoryID,
		"quantity":        2,
		"unit_price":      price,
		"paid_amount":     paid,
		"paid_by_id":      paidByID,
		"event_id":        eventID,
		"payment_mode_id": modeID,
		"notes":           "deposit paid",
	}
}

func TestCreateExpense(t *testing.T) {
	f := newFixture(t)
	cat, person, event, mode := setupOwner(t, f)

	rec := f.do(t, http.MethodPost, "/api/expenses",
		expensePayload(cat, person, event, mode, "500.00", "1000.00"), f.token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody[expenseResponse](t, rec)
	if resp.TotalCents != 100000 {
		t.Errorf("total_cents = %d, want 100000", resp.TotalCents)
	}
	if resp.BalanceCents != 0 {
		t.Errorf("balance_cents = %d, want 0", resp.BalanceCents)
	}
	if resp.PaidStatus != "paid" {
		t.Errorf("paid_status = %q, want paid", resp.PaidStatus)
	}
	if resp.Category == "" || resp.PaidBy == "" || resp.Event == "" || resp.PaymentMode == "" {
		t.Errorf("reference names missing: %+v", resp)
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	f := newFixture(t)
	cat, person, event, mode := setupOwner(t, f)

	cases := []struct {
		name   string
		mutate func(map[string]any)
		status int
	}{
		{"negative price", func(p map[string]any) { p["unit_price"] = "-5.00" }, http.StatusUnprocessableEntity},
		{"garbage price", func(p map[string]any) { p["unit_price"] = "abc" }, http.StatusBadRequest},
		{"double decimal price", func(p map[string]any) { p["unit_price"] = "5.0.0" }, http.StatusBadRequest},
		{"empty item name", func(p map[string]any) { p["item_name"] = "   " }, http.StatusUnprocessableEntity},
		{"bad date", func(p map[string]any) { p["date"] = "10/05/2026" }, http.StatusUnprocessableEntity},
		{"zero category", func(p map[string]any) { p["category_id"] = 0 }, http.StatusUnprocessableEntity},
		{"unknown category", func(p map[string]any) { p["category_id"] = 9999 }, http.StatusUnprocessableEntity},
		{"negative paid", func(p map[string]any) { p["paid_amount"] = "-1" }, http.StatusUnprocessableEntity},
		{"huge quantity", func(p map[string]any) { p["quantity"] = int64(1) << 40 }, http.StatusUnprocessableEntity},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			payload := expensePayload(cat, person, event, mode, "500.00", "0")
			tt.mutate(payload)
			rec := f.do(t, http.MethodPost, "/api/expenses", payload, f.token)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestExpenseLifecycle(t *testing.T) {
	f := newFixture(t)
	cat, person, event, mode := setupOwner(t, f)

	created := decodeBody[expenseResponse](t, f.do(t, http.MethodPost, "/api/expenses",
		expensePayload(cat, person, event, mode, "500.00", "300.00"), f.token))
	if created.PaidStatus != "half_paid" {
		t.Fatalf("paid_status = %q, want half_paid", created.PaidStatus)
	}

	rec := f.do(t, http.MethodGet, fmt.Sprintf("/api/expenses/%d", created.ID), nil, f.token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	// Settle the remaining balance.
	payload := expensePayload(cat, person, event, mode, "500.00", "1000.00")
	rec = f.do(t, http.MethodPut, fmt.Sprintf("/api/expenses/%d", created.ID), payload, f.token)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody[expenseResponse](t, rec)
	if updated.PaidStatus != "paid" || updated.BalanceCents != 0 {
		t.Errorf("after settle: status=%q balance=%d", updated.PaidStatus, updated.BalanceCents)
	}

	rec = f.do(t, http.MethodDelete, fmt.Sprintf("/api/expenses/%d", created.ID), nil, f.token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/expenses/%d", created.ID), nil, f.token)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want 404", rec.Code)
	}

	list := decodeBody[[]expenseResponse](t, f.do(t, http.MethodGet, "/api/expenses", nil, f.token))
	if len(list) != 0 {
		t.Errorf("list has %d items after delete", len(list))
	}
}

func TestExpenseNotVisibleToOtherOwner(t *testing.T) {
	f := newFixture(t)
	cat, person, event, mode := setupOwner(t, f)

	created := decodeBody[expenseResponse](t, f.do(t, http.MethodPost, "/api/expenses",
		expensePayload(cat, person, event, mode, "500.00", "0"), f.token))

	other := signToken(t, "couple-2")
	rec := f.do(t, http.MethodGet, fmt.Sprintf("/api/expenses/%d", created.ID), nil, other)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-owner get: status = %d, want 404", rec.Code)
	}
	rec = f.do(t, http.MethodDelete, fmt.Sprintf("/api/expenses/%d", created.ID), nil, other)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-owner delete: status = %d, want 404", rec.Code)
	}
}

func TestCreateReferenceEndpoints(t *testing.T) {
	f := newFixture(t)
	setupOwner(t, f)

	rec := f.do(t, http.MethodPost, "/api/paid-by", createReferenceRequest{Name: "Bride's parents"}, f.token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create paid-by status = %d: %s", rec.Code, rec.Body.String())
	}

	// Duplicate name conflicts.
	rec = f.do(t, http.MethodPost, "/api/paid-by", createReferenceRequest{Name: "Bride's parents"}, f.token)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate paid-by status = %d, want 409", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/api/events", createReferenceRequest{Name: "Rehearsal dinner"}, f.token)
	if rec.Code != http.StatusCreated {
		t.Errorf("create event status = %d", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/api/events", createReferenceRequest{Name: "  "}, f.token)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("blank event name status = %d, want 422", rec.Code)
	}
}

func TestSetupStatus(t *testing.T) {
	f := newFixture(t)

	status := decodeBody[setupStatusResponse](t, f.do(t, http.MethodGet, "/api/setup", nil, f.token))
	if status.Seeded {
		t.Error("fresh owner reported as seeded")
	}

	setupOwner(t, f)

	status = decodeBody[setupStatusResponse](t, f.do(t, http.MethodGet, "/api/setup", nil, f.token))
	if !status.Seeded {
		t.Error("owner not seeded after setup")
	}
}

func TestProfileRoundTrip(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/profile", nil, f.token)
	if rec.Code != http.StatusNotFound {
		t.Errorf("profile before setup: status = %d, want 404", rec.Code)
	}

	rec = f.do(t, http.MethodPut, "/api/profile", map[string]any{
		"partner_one":    "Anita",
		"partner_two":    "Rahul",
		"wedding_date":   "2026-11-20",
		"city":           "Jaipur",
		"guest_estimate": 250,
		"budget":         "1500000.00",
	}, f.token)
	if rec.Code != http.StatusOK {
		t.Fatalf("put profile status = %d: %s", rec.Code, rec.Body.String())
	}

	got := decodeBody[profileResponse](t, f.do(t, http.MethodGet, "/api/profile", nil, f.token))
	if got.WeddingDate != "2026-11-20" || got.BudgetCents != 150000000 {
		t.Errorf("profile round trip mismatch: %+v", got)
	}
}
