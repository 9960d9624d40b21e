package core

// PaidStatus classifies an expense by how much of its total has been paid.
type PaidStatus string

const (
	StatusPaid     PaidStatus = "paid"
	StatusHalfPaid PaidStatus = "half_paid"
	StatusUnpaid   PaidStatus = "unpaid"
)

// Derived holds the fields computed from the user-entered inputs. They are
// never entered directly and always recomputed together.
type Derived struct {
	Total   Money
	Balance Money
	Status  PaidStatus
}

// Derive computes total, balance and paid status from the three current
// inputs. Quantity and unit price are exact in cents, so the total needs no
// further rounding; Validate bounds quantity and the quantity-price product,
// so the multiplication here cannot wrap. The balance may be negative:
// over-payment is representable and still classifies as paid.
//
// Classification order matters. A zero-total expense with nothing paid falls
// through to unpaid: a zero-value entry must not inflate the fully-paid counts
// on the dashboard.
func Derive(quantity int64, unitPrice, paidAmount Money) Derived {
	total := Money{Cents: quantity * unitPrice.Cents}
	balance := Money{Cents: total.Cents - paidAmount.Cents}

	var status PaidStatus
	switch {
	case total.Cents > 0 && paidAmount.Cents >= total.Cents:
		status = StatusPaid
	case paidAmount.Cents > 0:
		status = StatusHalfPaid
	default:
		status = StatusUnpaid
	}

	return Derived{Total: total, Balance: balance, Status: status}
}
