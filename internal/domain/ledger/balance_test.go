package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func payment(amount string) Payment {
	return Payment{
		ID:       uuid.New(),
		RecordID: uuid.New(),
		Amount:   decimal.RequireFromString(amount),
	}
}

func TestComputeBalance(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		payments    []string
		totalPaid   string
		outstanding string
	}{
		{"no payments", "100", nil, "0", "100"},
		{"partial payment", "100", []string{"40"}, "40", "60"},
		{"exact settlement", "100", []string{"60", "40"}, "100", "0"},
		{"overpayment is negative", "100", []string{"60", "60"}, "120", "-20"},
		{"fractional amounts", "10.75", []string{"3.25", "2.50"}, "5.75", "5"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payments := make([]Payment, len(tc.payments))
			for i, p := range tc.payments {
				payments[i] = payment(p)
			}

			b := ComputeBalance(decimal.RequireFromString(tc.amount), payments)

			assert.True(t, b.TotalPaid.Equal(decimal.RequireFromString(tc.totalPaid)),
				"total paid: got %s", b.TotalPaid)
			assert.True(t, b.Outstanding.Equal(decimal.RequireFromString(tc.outstanding)),
				"outstanding: got %s", b.Outstanding)
		})
	}
}

func TestBalanceFromTotal(t *testing.T) {
	b := BalanceFromTotal(decimal.RequireFromString("100"), decimal.RequireFromString("120"))
	assert.True(t, b.Outstanding.Equal(decimal.RequireFromString("-20")))
}
