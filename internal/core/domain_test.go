package core

import (
	"errors"
	"math"
	"testing"
	"time"
)

func validInput() ExpenseInput {
	return ExpenseInput{
		Date:          NewDate(2026, 5, 16),
		ItemName:      "Bridal bouquet",
		CategoryID:    3,
		Quantity:      2,
		UnitPrice:     Money{Cents: 50000},
		PaidAmount:    Money{Cents: 100000},
		PaidByID:      1,
		EventID:       2,
		PaymentModeID: 1,
		Notes:         "deposit included",
	}
}

func TestNewExpenseDerivesFields(t *testing.T) {
	e, err := NewExpense(validInput())
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if e.Total.Cents != 100000 {
		t.Fatalf("total = %d, want 100000", e.Total.Cents)
	}
	if e.Balance.Cents != 0 {
		t.Fatalf("balance = %d, want 0", e.Balance.Cents)
	}
	if e.Status != StatusPaid {
		t.Fatalf("status = %q, want paid", e.Status)
	}
}

func TestNewExpenseZeroValueIsUnpaid(t *testing.T) {
	in := validInput()
	in.Quantity = 1
	in.UnitPrice = Money{}
	in.PaidAmount = Money{}
	e, err := NewExpense(in)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if e.Total.Cents != 0 || e.Balance.Cents != 0 || e.Status != StatusUnpaid {
		t.Fatalf("got total=%d balance=%d status=%q", e.Total.Cents, e.Balance.Cents, e.Status)
	}
}

func TestExpenseInputValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ExpenseInput)
		want   error
	}{
		{"zero date", func(in *ExpenseInput) { in.Date = Date{} }, ErrInvalidDate},
		{"blank item", func(in *ExpenseInput) { in.ItemName = "   " }, ErrEmptyItemName},
		{"zero quantity", func(in *ExpenseInput) { in.Quantity = 0 }, ErrInvalidQuantity},
		{"negative quantity", func(in *ExpenseInput) { in.Quantity = -2 }, ErrInvalidQuantity},
		{"huge quantity", func(in *ExpenseInput) { in.Quantity = 1 << 40 }, ErrInvalidQuantity},
		{"negative price", func(in *ExpenseInput) { in.UnitPrice.Cents = -1 }, ErrInvalidUnitPrice},
		{"negative paid", func(in *ExpenseInput) { in.PaidAmount.Cents = -1 }, ErrInvalidPaidAmount},
		{"no category", func(in *ExpenseInput) { in.CategoryID = 0 }, ErrEmptyCategory},
		{"no paid-by", func(in *ExpenseInput) { in.PaidByID = 0 }, ErrEmptyPaidBy},
		{"no event", func(in *ExpenseInput) { in.EventID = 0 }, ErrEmptyEvent},
		{"no payment mode", func(in *ExpenseInput) { in.PaymentModeID = 0 }, ErrEmptyPaymentMode},
	}
	for _, tc := range cases {
		in := validInput()
		tc.mutate(&in)
		if err := in.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}

	// Past and future dates are both legal.
	in := validInput()
	in.Date = NewDate(1999, 1, 1)
	if err := in.Validate(); err != nil {
		t.Fatalf("past date: %v", err)
	}
	in.Date = Date{Time: time.Now().AddDate(5, 0, 0)}
	if err := in.Validate(); err != nil {
		t.Fatalf("future date: %v", err)
	}
}

// A quantity that passes the range check on its own must still be rejected
// when the product with the unit price would wrap int64.
func TestNewExpenseRejectsOverflowingTotal(t *testing.T) {
	in := validInput()
	in.Quantity = MaxQuantity
	in.UnitPrice = Money{Cents: math.MaxInt64 / 2}
	in.PaidAmount = Money{}
	if _, err := NewExpense(in); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("got %v, want %v", err, ErrInvalidQuantity)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-05-16")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.String() != "2026-05-16" {
		t.Fatalf("got %q", d.String())
	}
	for _, bad := range []string{"", "16/05/2026", "2026-13-01", "soon"} {
		if _, err := ParseDate(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestValidateReferenceName(t *testing.T) {
	if err := ValidateReferenceName("Sangeet"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := ValidateReferenceName("   "); !errors.Is(err, ErrEmptyReferenceName) {
		t.Fatalf("got %v", err)
	}
}
