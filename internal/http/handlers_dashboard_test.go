package http

import (
	"net/http"
	"testing"
	"time"
)

// seedExpenses creates three expenses across two categories so the aggregate
// endpoints have something to chew on: a fully paid venue, a half paid
// catering booking, and an unpaid catering extra.
func seedExpenses(t *testing.T, f *fixture) {
	t.Helper()

	cats := decodeBody[[]referenceResponse](t, f.do(t, http.MethodGet, "/api/categories", nil, f.token))
	var venueID, cateringID int64
	for _, c := range cats {
		switch c.Name {
		case "Venue":
			venueID = c.ID
		case "Catering":
			cateringID = c.ID
		}
	}
	if venueID == 0 || cateringID == 0 {
		t.Fatal("expected Venue and Catering in seeded categories")
	}

	people := decodeBody[[]referenceResponse](t, f.do(t, http.MethodGet, "/api/paid-by", nil, f.token))
	events := decodeBody[[]referenceResponse](t, f.do(t, http.MethodGet, "/api/events", nil, f.token))
	modes := decodeBody[[]referenceResponse](t, f.do(t, http.MethodGet, "/api/payment-modes", nil, f.token))

	date := time.Now().UTC().Format("2006-01-02")
	create := func(name string, categoryID int64, price, paid string) {
		t.Helper()
		payload := map[string]any{
			"date":            date,
			"item_name":       name,
			"category_id":     categoryID,
			"quantity":        1,
			"unit_price":      price,
			"paid_amount":     paid,
			"paid_by_id":      people[0].ID,
			"event_id":        events[0].ID,
			"payment_mode_id": modes[0].ID,
		}
		rec := f.do(t, http.MethodPost, "/api/expenses", payload, f.token)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %q: status = %d: %s", name, rec.Code, rec.Body.String())
		}
	}

	create("Banquet hall", venueID, "6000.00", "6000.00")
	create("Buffet dinner", cateringID, "3000.00", "1000.00")
	create("Late night snacks", cateringID, "1000.00", "0")
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	setupOwner(t, f)
	seedExpenses(t, f)

	rec := f.do(t, http.MethodGet, "/api/dashboard", nil, f.token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	dash := decodeBody[dashboardResponse](t, rec)

	if dash.Totals.TotalCents != 1000000 {
		t.Errorf("total_cents = %d, want 1000000", dash.Totals.TotalCents)
	}
	if dash.Totals.PaidCents != 700000 {
		t.Errorf("paid_cents = %d, want 700000", dash.Totals.PaidCents)
	}
	if dash.Totals.BalanceCents != 300000 {
		t.Errorf("balance_cents = %d, want 300000", dash.Totals.BalanceCents)
	}
	if dash.Totals.Count != 3 || dash.Totals.PaidCount != 1 || dash.Totals.UnpaidCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 3/1/1",
			dash.Totals.Count, dash.Totals.PaidCount, dash.Totals.UnpaidCount)
	}
	if dash.Totals.PercentPaid != 70 {
		t.Errorf("percent_paid = %d, want 70", dash.Totals.PercentPaid)
	}

	if len(dash.TopCategories) != 2 {
		t.Fatalf("top_categories has %d entries, want 2", len(dash.TopCategories))
	}
	if dash.TopCategories[0].Name != "Venue" {
		t.Errorf("top category = %q, want Venue", dash.TopCategories[0].Name)
	}
	if dash.TopCategories[0].Share != 60.0 {
		t.Errorf("Venue share = %v, want 60.0", dash.TopCategories[0].Share)
	}

	if len(dash.MonthlyTrend) != dashboardTrendMonths {
		t.Errorf("monthly_trend has %d points, want %d", len(dash.MonthlyTrend), dashboardTrendMonths)
	}
	last := dash.MonthlyTrend[len(dash.MonthlyTrend)-1]
	now := time.Now().UTC()
	if last.Year != now.Year() || last.Month != int(now.Month()) {
		t.Errorf("trend ends at %d-%02d, want current month", last.Year, last.Month)
	}
	if last.PaidCents != 700000 {
		t.Errorf("current month paid = %d, want 700000", last.PaidCents)
	}

	if len(dash.Recent) != 3 {
		t.Errorf("recent has %d items, want 3", len(dash.Recent))
	}

	// No profile yet, so the countdown is absent.
	if dash.WeddingDate != "" || dash.DaysUntilWedding != nil {
		t.Errorf("countdown present without profile: %q %v", dash.WeddingDate, dash.DaysUntilWedding)
	}
}

func TestDashboardWeddingCountdown(t *testing.T) {
	f := newFixture(t)
	setupOwner(t, f)

	weddingDate := time.Now().UTC().AddDate(0, 0, 30).Format("2006-01-02")
	rec := f.do(t, http.MethodPut, "/api/profile", map[string]any{
		"partner_one":  "Anita",
		"partner_two":  "Rahul",
		"wedding_date": weddingDate,
	}, f.token)
	if rec.Code != http.StatusOK {
		t.Fatalf("put profile status = %d: %s", rec.Code, rec.Body.String())
	}

	dash := decodeBody[dashboardResponse](t, f.do(t, http.MethodGet, "/api/dashboard", nil, f.token))
	if dash.WeddingDate != weddingDate {
		t.Errorf("wedding_date = %q, want %q", dash.WeddingDate, weddingDate)
	}
	if dash.DaysUntilWedding == nil {
		t.Fatal("days_until_wedding missing")
	}
	if got := *dash.DaysUntilWedding; got != 30 {
		t.Errorf("days_until_wedding = %d, want 30", got)
	}
}

func TestDashboardCacheInvalidation(t *testing.T) {
	f := newFixture(t)
	cat, person, event, mode := setupOwner(t, f)

	dash := decodeBody[dashboardResponse](t, f.do(t, http.MethodGet, "/api/dashboard", nil, f.token))
	if dash.Totals.Count != 0 {
		t.Fatalf("fresh dashboard count = %d, want 0", dash.Totals.Count)
	}

	rec := f.do(t, http.MethodPost, "/api/expenses",
		expensePayload(cat, person, event, mode, "500.00", "0"), f.token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}

	dash = decodeBody[dashboardResponse](t, f.do(t, http.MethodGet, "/api/dashboard", nil, f.token))
	if dash.Totals.Count != 1 {
		t.Errorf("dashboard count after create = %d, want 1", dash.Totals.Count)
	}
}

func TestAnalytics(t *testing.T) {
	f := newFixture(t)
	setupOwner(t, f)
	seedExpenses(t, f)

	rec := f.do(t, http.MethodGet, "/api/analytics", nil, f.token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	an := decodeBody[analyticsResponse](t, rec)

	if an.Totals.TotalCents != 1000000 {
		t.Errorf("total_cents = %d, want 1000000", an.Totals.TotalCents)
	}

	// Each partition sums back to the grand total.
	partitions := map[string][]groupResponse{
		"by_category":     an.ByCategory,
		"by_event":        an.ByEvent,
		"by_payment_mode": an.ByPaymentMode,
		"by_paid_by":      an.ByPaidBy,
	}
	for name, groups := range partitions {
		var sum int64
		for _, g := range groups {
			sum += g.TotalCents
		}
		if sum != an.Totals.TotalCents {
			t.Errorf("%s sums to %d, want %d", name, sum, an.Totals.TotalCents)
		}
	}

	if len(an.StatusBreakdown) != 3 {
		t.Fatalf("status_breakdown has %d entries, want 3", len(an.StatusBreakdown))
	}
	byStatus := map[string]statusTotalResponse{}
	for _, st := range an.StatusBreakdown {
		byStatus[st.Status] = st
	}
	if byStatus["paid"].Count != 1 || byStatus["half_paid"].Count != 1 || byStatus["unpaid"].Count != 1 {
		t.Errorf("status counts = %+v", byStatus)
	}

	if len(an.MonthlyTrend) != analyticsTrendMonths {
		t.Errorf("monthly_trend has %d points, want %d", len(an.MonthlyTrend), analyticsTrendMonths)
	}

	if len(an.Largest) != 3 {
		t.Fatalf("largest has %d items, want 3", len(an.Largest))
	}
	if an.Largest[0].ItemName != "Banquet hall" {
		t.Errorf("largest[0] = %q, want Banquet hall", an.Largest[0].ItemName)
	}
}
