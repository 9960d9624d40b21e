package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// MaxQuantity bounds the per-line quantity so quantity times unit price stays
// well inside int64 cents. No real wedding line item comes close.
const MaxQuantity = 10000

type (
	// Date is a calendar date; the time-of-day portion is always midnight UTC.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Reference is a lookup-table row (category, payment mode, paid-by person,
	// event) referenced by id from an Expense.
	Reference struct {
		ID   int64
		Name string
	}

	// ExpenseInput is the raw tuple collected from the user before derivation.
	ExpenseInput struct {
		Date          Date
		ItemName      string
		CategoryID    int64
		Quantity      int64
		UnitPrice     Money
		PaidAmount    Money
		PaidByID      int64
		EventID       int64
		PaymentModeID int64
		Notes         string
	}

	// Expense is a fully derived record, decorated with the display names of
	// its referenced entities. The repository fills the name fields on read;
	// the aggregation functions operate on this denormalized view.
	Expense struct {
		ID            int64
		Owner         string
		Date          Date
		ItemName      string
		Quantity      int64
		UnitPrice     Money
		Total         Money
		PaidAmount    Money
		Balance       Money
		Status        PaidStatus
		CategoryID    int64
		Category      string
		PaidByID      int64
		PaidBy        string
		EventID       int64
		Event         string
		PaymentModeID int64
		PaymentMode   string
		Notes         string
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	// Profile carries optional wedding metadata for an owner. Only the wedding
	// date feeds an aggregate (the countdown); everything else is display-only.
	Profile struct {
		Owner         string
		PartnerOne    string
		PartnerTwo    string
		WeddingDate   Date // zero when not set
		Phone         string
		City          string
		GuestEstimate int64
		Budget        Money
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrEmptyItemName      = errors.New("empty item name")
	ErrInvalidQuantity    = errors.New("quantity out of range")
	ErrInvalidUnitPrice   = errors.New("unit price cannot be negative")
	ErrInvalidPaidAmount  = errors.New("paid amount cannot be negative")
	ErrEmptyCategory      = errors.New("missing category reference")
	ErrEmptyPaidBy        = errors.New("missing paid-by reference")
	ErrEmptyEvent         = errors.New("missing event reference")
	ErrEmptyPaymentMode   = errors.New("missing payment mode reference")
	ErrItemNameTooLong    = errors.New("item name too long (max 200 characters)")
	ErrEmptyReferenceName = errors.New("empty reference name")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// ParseDate parses a YYYY-MM-DD string. Past and future dates are both legal;
// both the booking wizard and the edit flow depend on free date entry.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Validate checks the construction invariants. Reference ids only need to be
// present; existence is the repository's job at persist time.
func (in ExpenseInput) Validate() error {
	if err := in.Date.Validate(); err != nil {
		return err
	}
	name := strings.TrimSpace(in.ItemName)
	if name == "" {
		return ErrEmptyItemName
	}
	if len(name) > 200 {
		return ErrItemNameTooLong
	}
	if in.Quantity < 1 || in.Quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	if in.UnitPrice.Cents < 0 {
		return ErrInvalidUnitPrice
	}
	if in.PaidAmount.Cents < 0 {
		return ErrInvalidPaidAmount
	}
	if in.UnitPrice.Cents > 0 && in.Quantity > math.MaxInt64/in.UnitPrice.Cents {
		return ErrInvalidQuantity
	}
	if in.CategoryID <= 0 {
		return ErrEmptyCategory
	}
	if in.PaidByID <= 0 {
		return ErrEmptyPaidBy
	}
	if in.EventID <= 0 {
		return ErrEmptyEvent
	}
	if in.PaymentModeID <= 0 {
		return ErrEmptyPaymentMode
	}
	return nil
}

// NewExpense validates the raw input and produces a fully derived Expense.
// Pure construction: no partial record is ever returned alongside an error.
// The same path runs on create and on every edit, so the derived fields are
// always a function of the current inputs, never of prior state.
func NewExpense(in ExpenseInput) (Expense, error) {
	if err := in.Validate(); err != nil {
		return Expense{}, err
	}
	d := Derive(in.Quantity, in.UnitPrice, in.PaidAmount)
	return Expense{
		Date:          in.Date,
		ItemName:      strings.TrimSpace(in.ItemName),
		Quantity:      in.Quantity,
		UnitPrice:     in.UnitPrice,
		Total:         d.Total,
		PaidAmount:    in.PaidAmount,
		Balance:       d.Balance,
		Status:        d.Status,
		CategoryID:    in.CategoryID,
		PaidByID:      in.PaidByID,
		EventID:       in.EventID,
		PaymentModeID: in.PaymentModeID,
		Notes:         strings.TrimSpace(in.Notes),
	}, nil
}

// ValidateReferenceName checks a user-supplied name for an owner-scoped
// reference entity (paid-by person or event).
func ValidateReferenceName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyReferenceName
	}
	if len(name) > 100 {
		return errors.New("reference name too long (max 100 characters)")
	}
	return nil
}
