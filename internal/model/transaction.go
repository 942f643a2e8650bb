package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Split is one leg of a balanced Transaction: a signed amount posted to one
// account. ID is a stable GUID, distinct from object identity.
type Split struct {
	ID          string
	Account     *Account
	Amount      decimal.Decimal // signed exact decimal, never floating point
	Transaction *Transaction    // non-owning back-reference
}

// Transaction is an ordered, non-empty set of splits sharing one currency and
// one date. The store guarantees the split amounts sum to zero.
type Transaction struct {
	ID          string
	Date        time.Time
	Description string
	Currency    string
	Splits      []*Split
}

// Balanced reports whether the split amounts sum to zero.
func (t *Transaction) Balanced() bool {
	sum := decimal.Zero
	for _, s := range t.Splits {
		sum = sum.Add(s.Amount)
	}
	return sum.IsZero()
}
