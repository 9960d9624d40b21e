package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"nozze/internal/core"
	"nozze/internal/storage"
)

const (
	dashboardTopCategories = 5
	dashboardTrendMonths   = 6
	dashboardRecentItems   = 5
	analyticsTrendMonths   = 12
	analyticsLargestItems  = 6
)

type totalsResponse struct {
	TotalCents   int64 `json:"total_cents"`
	PaidCents    int64 `json:"paid_cents"`
	BalanceCents int64 `json:"balance_cents"`
	Count        int   `json:"count"`
	PercentPaid  int   `json:"percent_paid"`
	PaidCount    int   `json:"paid_count"`
	UnpaidCount  int   `json:"unpaid_count"`
}

func toTotalsResponse(t core.Totals) totalsResponse {
	return totalsResponse{
		TotalCents:   t.Expenses.Cents,
		PaidCents:    t.Paid.Cents,
		BalanceCents: t.Balance.Cents,
		Count:        t.Count,
		PercentPaid:  t.PercentPaid,
		PaidCount:    t.PaidCount,
		UnpaidCount:  t.UnpaidCount,
	}
}

type groupResponse struct {
	Name         string  `json:"name"`
	TotalCents   int64   `json:"total_cents"`
	PaidCents    int64   `json:"paid_cents"`
	BalanceCents int64   `json:"balance_cents"`
	Count        int     `json:"count"`
	Share        float64 `json:"share"`
}

func toGroupResponses(groups []core.GroupTotal) []groupResponse {
	out := make([]groupResponse, len(groups))
	for i, g := range groups {
		out[i] = groupResponse{
			Name:         g.Name,
			TotalCents:   g.Total.Cents,
			PaidCents:    g.Paid.Cents,
			BalanceCents: g.Balance.Cents,
			Count:        g.Count,
			Share:        g.Share,
		}
	}
	return out
}

type trendPointResponse struct {
	Year      int   `json:"year"`
	Month     int   `json:"month"`
	PaidCents int64 `json:"paid_cents"`
}

func toTrendResponses(points []core.TrendPoint) []trendPointResponse {
	out := make([]trendPointResponse, len(points))
	for i, p := range points {
		out[i] = trendPointResponse{Year: p.Year, Month: int(p.Month), PaidCents: p.Paid.Cents}
	}
	return out
}

type statusTotalResponse struct {
	Status     string `json:"status"`
	Count      int    `json:"count"`
	TotalCents int64  `json:"total_cents"`
}

func toStatusResponses(rows []core.StatusTotal) []statusTotalResponse {
	out := make([]statusTotalResponse, len(rows))
	for i, row := range rows {
		out[i] = statusTotalResponse{Status: string(row.Status), Count: row.Count, TotalCents: row.Total.Cents}
	}
	return out
}

type dashboardResponse struct {
	Totals           totalsResponse       `json:"totals"`
	TopCategories    []groupResponse      `json:"top_categories"`
	MonthlyTrend     []trendPointResponse `json:"monthly_trend"`
	Recent           []expenseResponse    `json:"recent"`
	WeddingDate      string               `json:"wedding_date,omitempty"`
	DaysUntilWedding *int                 `json:"days_until_wedding,omitempty"`
}

type analyticsResponse struct {
	Totals          totalsResponse        `json:"totals"`
	ByCategory      []groupResponse       `json:"by_category"`
	ByEvent         []groupResponse       `json:"by_event"`
	ByPaymentMode   []groupResponse       `json:"by_payment_mode"`
	ByPaidBy        []groupResponse       `json:"by_paid_by"`
	StatusBreakdown []statusTotalResponse `json:"status_breakdown"`
	MonthlyTrend    []trendPointResponse  `json:"monthly_trend"`
	Largest         []expenseResponse     `json:"largest"`
}

func buildDashboard(items []core.Expense, profile core.Profile, haveProfile bool, now time.Time) dashboardResponse {
	resp := dashboardResponse{
		Totals:        toTotalsResponse(core.Rollup(items)),
		TopCategories: toGroupResponses(core.TopN(core.GroupBy(items, core.ByCategory), dashboardTopCategories)),
		MonthlyTrend:  toTrendResponses(core.MonthlyPaidTrend(items, dashboardTrendMonths, now)),
		Recent:        toExpenseResponses(core.Recent(items, dashboardRecentItems)),
	}
	if haveProfile && !profile.WeddingDate.IsZero() {
		days := core.DaysUntil(profile.WeddingDate, now)
		resp.WeddingDate = profile.WeddingDate.String()
		resp.DaysUntilWedding = &days
	}
	return resp
}

func buildAnalytics(items []core.Expense, now time.Time) analyticsResponse {
	return analyticsResponse{
		Totals:          toTotalsResponse(core.Rollup(items)),
		ByCategory:      toGroupResponses(core.GroupBy(items, core.ByCategory)),
		ByEvent:         toGroupResponses(core.GroupBy(items, core.ByEvent)),
		ByPaymentMode:   toGroupResponses(core.GroupBy(items, core.ByPaymentMode)),
		ByPaidBy:        toGroupResponses(core.GroupBy(items, core.ByPaidBy)),
		StatusBreakdown: toStatusResponses(core.StatusBreakdown(items)),
		MonthlyTrend:    toTrendResponses(core.MonthlyPaidTrend(items, analyticsTrendMonths, now)),
		Largest:         toExpenseResponses(core.Largest(items, analyticsLargestItems)),
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, owner string) {
	if snap, ok := s.dashboardCache.Get(owner); ok {
		writeJSON(w, http.StatusOK, snap)
		return
	}

	items, err := s.repo.ListExpenses(r.Context(), owner)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	profile, haveProfile, err := s.loadProfile(r.Context(), owner)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	snap := buildDashboard(items, profile, haveProfile, time.Now().UTC())
	s.dashboardCache.Set(owner, snap)
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request, owner string) {
	if snap, ok := s.analyticsCache.Get(owner); ok {
		writeJSON(w, http.StatusOK, snap)
		return
	}

	items, err := s.repo.ListExpenses(r.Context(), owner)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	snap := buildAnalytics(items, time.Now().UTC())
	s.analyticsCache.Set(owner, snap)
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) loadProfile(ctx context.Context, owner string) (core.Profile, bool, error) {
	p, err := s.repo.GetProfile(ctx, owner)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Profile{}, false, nil
	}
	if err != nil {
		return core.Profile{}, false, err
	}
	return p, true, nil
}
