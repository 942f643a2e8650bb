package ledger

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/autobudget-dev/autobudget/internal/model"
)

// MemoryStore keeps a whole ledger in memory, with a precomputed full-name
// index over the account tree. It backs the SQLite store and the tests.
type MemoryStore struct {
	root   *model.Account
	byPath map[string]*model.Account
	txs    []*model.Transaction
}

// NewMemoryStore builds a store around an existing account tree. The tree
// must not be restructured afterwards; the path index is built once.
func NewMemoryStore(root *model.Account) *MemoryStore {
	s := &MemoryStore{root: root, byPath: make(map[string]*model.Account)}
	for _, a := range root.Descendants() {
		s.byPath[a.FullName()] = a
	}
	return s
}

// RootAccount implements Store.
func (s *MemoryStore) RootAccount() *model.Account {
	return s.root
}

// LookupAccount implements Store.
func (s *MemoryStore) LookupAccount(path string) (*model.Account, bool) {
	a, ok := s.byPath[path]
	return a, ok
}

// Transactions implements Store.
func (s *MemoryStore) Transactions() []*model.Transaction {
	return s.txs
}

// AddTransaction appends a transaction to the ledger. Used when constructing
// a ledger wholesale; reconciliation mutates only through BeginEdit.
func (s *MemoryStore) AddTransaction(tx *model.Transaction) {
	s.txs = append(s.txs, tx)
}

// NewSplit creates a split on tx outside any edit scope, for ledger
// construction.
func (s *MemoryStore) NewSplit(tx *model.Transaction, account *model.Account, amount decimal.Decimal) *model.Split {
	sp := &model.Split{
		ID:          uuid.NewString(),
		Account:     account,
		Amount:      amount,
		Transaction: tx,
	}
	tx.Splits = append(tx.Splits, sp)
	return sp
}

// BeginEdit implements Store.
func (s *MemoryStore) BeginEdit(tx *model.Transaction) (Edit, error) {
	return &memoryEdit{tx: tx}, nil
}

type memoryEdit struct {
	tx     *model.Transaction
	staged []*model.Split
	closed bool
}

func (e *memoryEdit) AppendSplit(account *model.Account, amount decimal.Decimal) (*model.Split, error) {
	if e.closed {
		return nil, fmt.Errorf("edit scope on transaction %s already closed", e.tx.ID)
	}
	sp := &model.Split{
		ID:          uuid.NewString(),
		Account:     account,
		Amount:      amount,
		Transaction: e.tx,
	}
	e.staged = append(e.staged, sp)
	return sp, nil
}

func (e *memoryEdit) Commit() error {
	if e.closed {
		return nil
	}
	sum := decimal.Zero
	for _, sp := range e.tx.Splits {
		sum = sum.Add(sp.Amount)
	}
	for _, sp := range e.staged {
		sum = sum.Add(sp.Amount)
	}
	if !sum.IsZero() {
		return fmt.Errorf("transaction %s would not balance: residue %s", e.tx.ID, sum)
	}
	e.tx.Splits = append(e.tx.Splits, e.staged...)
	e.staged = nil
	e.closed = true
	return nil
}

func (e *memoryEdit) Rollback() error {
	e.staged = nil
	e.closed = true
	return nil
}
