// Package ledger defines the store contract reconciliation runs against,
// with an in-memory implementation and a SQLite-backed one.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/autobudget-dev/autobudget/internal/model"
)

// Store is the read surface of a ledger plus per-transaction edit scopes.
// The store owns the accounts, transactions, and splits it hands out; callers
// only read them and append splits through an Edit.
type Store interface {
	// RootAccount returns the root of the account tree.
	RootAccount() *model.Account

	// LookupAccount resolves a full account name such as
	// "Budget.Everyday.Food".
	LookupAccount(path string) (*model.Account, bool)

	// Transactions returns all transactions in ledger order.
	Transactions() []*model.Transaction

	// BeginEdit opens an edit scope on tx. Exactly one of Commit or Rollback
	// must be called on the returned Edit, on every exit path.
	BeginEdit(tx *model.Transaction) (Edit, error)
}

// Edit is a scoped mutation bracket over a single transaction. Appended
// splits stay staged until Commit; a failed or abandoned edit never leaves
// the transaction half-changed.
type Edit interface {
	// AppendSplit stages a new split on the transaction.
	AppendSplit(account *model.Account, amount decimal.Decimal) (*model.Split, error)

	// Commit applies the staged splits. It fails, leaving the transaction
	// untouched, if the transaction would no longer balance.
	Commit() error

	// Rollback discards the staged splits. Calling it after Commit is a
	// no-op, so it is safe to defer.
	Rollback() error
}
