package ledger

import (
	"github.com/shopspring/decimal"
)

// Balance is the read-derived settlement position of a ledger record.
// It is computed from the payments on demand and never stored, so there
// is no denormalized running total to drift out of sync.
type Balance struct {
	TotalPaid   decimal.Decimal `json:"total_paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// ComputeBalance derives the balance for a record of the given amount.
// Outstanding is not clamped: overpayment surfaces as a negative value.
func ComputeBalance(amount decimal.Decimal, payments []Payment) Balance {
	totalPaid := decimal.Zero
	for _, p := range payments {
		totalPaid = totalPaid.Add(p.Amount)
	}
	return Balance{
		TotalPaid:   totalPaid,
		Outstanding: amount.Sub(totalPaid),
	}
}

// BalanceFromTotal derives the balance when the paid total is already
// aggregated (the batch list path sums payments in a single query).
func BalanceFromTotal(amount, totalPaid decimal.Decimal) Balance {
	return Balance{
		TotalPaid:   totalPaid,
		Outstanding: amount.Sub(totalPaid),
	}
}
