package core

import (
	"math"
	"sort"
	"time"
)

// Fallback group labels for records whose reference name did not resolve.
// Records are never dropped from a breakdown.
const (
	LabelUncategorized = "Uncategorized"
	LabelNoEvent       = "No Event"
	LabelOther         = "Other"
)

type (
	// Totals is the scalar rollup over a snapshot of expenses, plus the
	// dashboard's simplified two-bucket status counters. Half-paid records
	// count in neither bucket; analytics carries the full three-way split.
	Totals struct {
		Expenses    Money
		Paid        Money
		Balance     Money
		Count       int
		PercentPaid int // whole percent, half-up; 0 when there are no expenses
		PaidCount   int // "completed"
		UnpaidCount int // "pending"
	}

	// GroupTotal is one row of a breakdown along a dimension.
	GroupTotal struct {
		Name    string
		Total   Money
		Paid    Money
		Balance Money
		Count   int
		Share   float64 // percent of the snapshot total, one decimal place
	}

	// StatusTotal is one row of the three-way status breakdown.
	StatusTotal struct {
		Status PaidStatus
		Count  int
		Total  Money
	}

	// TrendPoint is one month bucket of the paid-amount trend.
	TrendPoint struct {
		Year  int
		Month time.Month
		Paid  Money
	}

	// Dimension selects the grouping key for a breakdown.
	Dimension int
)

const (
	ByCategory Dimension = iota
	ByEvent
	ByPaymentMode
	ByPaidBy
)

// Rollup reduces a snapshot into its scalar totals. An empty snapshot yields
// all zeroes, never an error.
func Rollup(items []Expense) Totals {
	var t Totals
	for _, e := range items {
		t.Expenses.Cents += e.Total.Cents
		t.Paid.Cents += e.PaidAmount.Cents
		t.Balance.Cents += e.Balance.Cents
		switch e.Status {
		case StatusPaid:
			t.PaidCount++
		case StatusUnpaid:
			t.UnpaidCount++
		}
	}
	t.Count = len(items)
	t.PercentPaid = percentOf(t.Paid.Cents, t.Expenses.Cents)
	return t
}

// percentOf returns part/whole as a whole percent with half-up rounding.
// The whole==0 guard keeps every aggregate total over any valid snapshot.
func percentOf(part, whole int64) int {
	if whole <= 0 {
		return 0
	}
	return int((part*100 + whole/2) / whole)
}

func (d Dimension) label(e Expense) string {
	var name, fallback string
	switch d {
	case ByCategory:
		name, fallback = e.Category, LabelUncategorized
	case ByEvent:
		name, fallback = e.Event, LabelNoEvent
	case ByPaymentMode:
		name, fallback = e.PaymentMode, LabelOther
	case ByPaidBy:
		name, fallback = e.PaidBy, LabelOther
	}
	if name == "" {
		return fallback
	}
	return name
}

// GroupBy partitions the snapshot along a dimension, summing amounts per
// group. Groups appear in first-seen input order; each group's share is its
// percent of the snapshot's total, rounded to one decimal place. The group
// totals always sum back to the scalar rollup total.
func GroupBy(items []Expense, dim Dimension) []GroupTotal {
	var grandTotal int64
	for _, e := range items {
		grandTotal += e.Total.Cents
	}

	index := make(map[string]int)
	var groups []GroupTotal
	for _, e := range items {
		name := dim.label(e)
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, GroupTotal{Name: name})
		}
		groups[i].Total.Cents += e.Total.Cents
		groups[i].Paid.Cents += e.PaidAmount.Cents
		groups[i].Balance.Cents += e.Balance.Cents
		groups[i].Count++
	}

	for i := range groups {
		groups[i].Share = shareOf(groups[i].Total.Cents, grandTotal)
	}
	return groups
}

// shareOf returns part/whole as a percent rounded to one decimal place.
func shareOf(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*1000) / 10
}

// TopN returns the n largest groups by total, descending. The sort is stable,
// so ties keep their input order; fewer than n groups come back unchanged.
func TopN(groups []GroupTotal, n int) []GroupTotal {
	ranked := make([]GroupTotal, len(groups))
	copy(ranked, groups)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Total.Cents > ranked[j].Total.Cents
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// StatusBreakdown returns the full three-way status split in a fixed order.
// Statuses with no records still appear with zero count and amount.
func StatusBreakdown(items []Expense) []StatusTotal {
	out := []StatusTotal{
		{Status: StatusPaid},
		{Status: StatusHalfPaid},
		{Status: StatusUnpaid},
	}
	at := map[PaidStatus]int{StatusPaid: 0, StatusHalfPaid: 1, StatusUnpaid: 2}
	for _, e := range items {
		i := at[e.Status]
		out[i].Count++
		out[i].Total.Cents += e.Total.Cents
	}
	return out
}

// MonthlyPaidTrend buckets paid amounts by calendar month over a trailing
// window of the given length ending at the month of now. The window is
// generated independently of the data, then populated: months with no
// records appear with amount 0.
func MonthlyPaidTrend(items []Expense, months int, now time.Time) []TrendPoint {
	if months <= 0 {
		return nil
	}
	points := make([]TrendPoint, 0, months)
	at := make(map[int]int, months)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	for i := 0; i < months; i++ {
		m := first.AddDate(0, i, 0)
		at[m.Year()*100+int(m.Month())] = i
		points = append(points, TrendPoint{Year: m.Year(), Month: m.Month()})
	}
	for _, e := range items {
		if i, ok := at[e.Date.Year()*100+int(e.Date.Month())]; ok {
			points[i].Paid.Cents += e.PaidAmount.Cents
		}
	}
	return points
}

// Recent returns the n most recently created records, newest first. The sort
// is stable so records sharing a timestamp keep their input order.
func Recent(items []Expense, n int) []Expense {
	out := make([]Expense, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Largest returns the n biggest records by total amount, descending, with
// stable tie order.
func Largest(items []Expense, n int) []Expense {
	out := make([]Expense, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.Cents > out[j].Total.Cents
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// DaysUntil counts whole calendar days from today to the target date.
// Negative means the date has passed; zero means it is today. Both are valid
// displayed states, not errors.
func DaysUntil(target Date, today time.Time) int {
	from := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Ceil(to.Sub(from).Hours() / 24))
}
