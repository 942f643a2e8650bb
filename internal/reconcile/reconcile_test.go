package reconcile

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobudget-dev/autobudget/internal/ledger"
	"github.com/autobudget-dev/autobudget/internal/match"
	"github.com/autobudget-dev/autobudget/internal/model"
)

var (
	quiet   = slog.New(slog.NewTextHandler(io.Discard, nil))
	someDay = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type leg struct {
	account string
	amount  string
}

func addTx(t *testing.T, s *ledger.MemoryStore, date time.Time, legs ...leg) *model.Transaction {
	t.Helper()
	tx := &model.Transaction{ID: uuid.NewString(), Date: date, Currency: "EUR"}
	for _, l := range legs {
		acc, ok := s.LookupAccount(l.account)
		require.True(t, ok, "account %q", l.account)
		s.NewSplit(tx, acc, dec(l.amount))
	}
	require.True(t, tx.Balanced(), "test fixture must balance")
	s.AddTransaction(tx)
	return tx
}

// amountsOn returns the amounts of tx's splits on the named account.
func amountsOn(tx *model.Transaction, account string) []string {
	var out []string
	for _, sp := range tx.Splits {
		if sp.Account.FullName() == account {
			out = append(out, sp.Amount.String())
		}
	}
	return out
}

func run(t *testing.T, s ledger.Store, opts Options) *Report {
	t.Helper()
	report, err := New(s, quiet, opts).Run()
	require.NoError(t, err)
	return report
}

// treeWithout builds the default tree, then detaches the account at the given
// full name.
func treeWithout(t *testing.T, path string) *model.Account {
	t.Helper()
	root := ledger.DefaultTree()
	acc, ok := root.LookupByFullName(path)
	require.True(t, ok)
	parent := acc.Parent
	for i, c := range parent.Children {
		if c == acc {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			break
		}
	}
	return root
}

func TestRun_MissingStructure(t *testing.T) {
	for _, path := range []string{
		match.ExpensesRoot,
		match.BudgetRoot,
		match.BudgetedFundsAccount,
		match.AvailableToBudgetAccount,
	} {
		t.Run(path, func(t *testing.T) {
			s := ledger.NewMemoryStore(treeWithout(t, path))

			_, err := New(s, quiet, Options{}).Run()
			require.Error(t, err)
			var ms *MissingStructureError
			require.True(t, errors.As(err, &ms))
			assert.Equal(t, path, ms.Path)
		})
	}
}

func TestRun_MissingStructure_WrongType(t *testing.T) {
	root := ledger.DefaultTree()
	budget, _ := root.LookupByFullName("Budget.Budgeted Funds")
	budget.Type = model.AccountTypeAsset
	s := ledger.NewMemoryStore(root)

	_, err := New(s, quiet, Options{}).Run()
	var ms *MissingStructureError
	require.True(t, errors.As(err, &ms))
	assert.Equal(t, match.BudgetedFundsAccount, ms.Path)
	assert.Equal(t, model.AccountTypeLiability, ms.WantType)
}

func TestRun_MissingStructure_NoMutation(t *testing.T) {
	s := ledger.NewMemoryStore(treeWithout(t, match.AvailableToBudgetAccount))
	tx := addTx(t, s, someDay,
		leg{"Expenses.Everyday.Groceries", "100"},
		leg{"Assets.Cash", "-100"})

	_, err := New(s, quiet, Options{}).Run()
	require.Error(t, err)
	assert.Len(t, tx.Splits, 2, "no transaction is touched when validation fails")
}

func TestRun_SynthesizesBudgetEntries(t *testing.T) {
	s := ledger.NewMemoryStore(ledger.DefaultTree())
	tx := addTx(t, s, someDay,
		leg{"Expenses.Everyday.Groceries", "100"},
		leg{"Assets.Cash", "-100"})

	report := run(t, s, Options{})

	assert.Equal(t, 1, report.TransactionsExamined)
	assert.Equal(t, 1, report.TransactionsChanged)
	assert.Len(t, report.Synthesized, 2)

	require.Len(t, tx.Splits, 4)
	assert.Equal(t, []string{"-100"}, amountsOn(tx, "Budget.Everyday.Groceries"))
	assert.Equal(t, []string{"100"}, amountsOn(tx, match.BudgetedFundsAccount))
	assert.True(t, tx.Balanced())
}

func TestRun_Idempotent(t *testing.T) {
	s := ledger.NewMemoryStore(ledger.DefaultTree())
	tx := addTx(t, s, someDay,
		leg{"Expenses.Everyday.Groceries", "100"},
		leg{"Assets.Cash", "-100"})

	run(t, s, Options{})
	report := run(t, s, Options{})

	assert.Equal(t, 1, report.TransactionsExamined)
	assert.Equal(t, 0, report.TransactionsChanged)
	assert.Empty(t, report.Synthesized)
	assert.Len(t, tx.Splits, 4, "a second run synthesizes nothing")
}

func TestRun_PartialMatch(t *testing.T) {
	// Two identical Food legs, only one pre-existing budget pair: exactly one
	// expense leg is matched, the other triggers synthesis.
	s := ledger.NewMemoryStore(ledger.DefaultTree())
	tx := addTx(t, s, someDay,
		leg{"Expenses.Everyday.Food", "100"},
		leg{"Expenses.Everyday.Food", "100"},
		leg{"Assets.Cash", "-200"},
		leg{"Budget.Everyday.Food", "-100"},
		leg{"Budget.Budgeted Funds", "100"})

	report := run(t, s, Options{})

	assert.Equal(t, 1, report.TransactionsChanged)
	assert.Len(t, report.Synthesized, 2)
	require.Len(t, tx.Splits, 7)
	assert.Equal(t, []string{"-100", "-100"}, amountsOn(tx, "Budget.Everyday.Food"))
	assert.Equal(t, []string{"100", "100"}, amountsOn(tx, match.BudgetedFundsAccount))
	assert.True(t, tx.Balanced())
}

func TestRun_UnbalancedBudgetSplit(t *testing.T) {
	// A budget leg nothing on the expense side accounts for: reported as a
	// warning, transaction left alone.
	s := ledger.NewMemoryStore(ledger.DefaultTree())
	tx := addTx(t, s, someDay,
		leg{"Expenses.Everyday.Groceries", "100"},
		leg{"Assets.Cash", "-100"},
		leg{"Budget.Everyday.Groceries", "-100"},
		leg{"Budget.Budgeted Funds", "100"},
		leg{"Budget.Everyday.Food", "-30"},
		leg{"Budget.Budgeted Funds", "30"})

	report := run(t, s, Options{})

	assert.Equal(t, 0, report.TransactionsChanged)
	require.Len(t, report.UnbalancedBudgets, 1)
	assert.Equal(t, "Budget.Everyday.Food", report.UnbalancedBudgets[0].Account)
	assert.Equal(t, "-30", report.UnbalancedBudgets[0].Amount.String())
	assert.Len(t, tx.Splits, 6, "unbalanced budget legs are never mutated")
}

func TestRun_UnmatchedExpenseReported(t *testing.T) {
	root := ledger.DefaultTree()
	expenses, _ := root.LookupByFullName("Expenses")
	expenses.AppendChild(&model.Account{Name: "Other", Type: model.AccountTypeExpense})
	s := ledger.NewMemoryStore(root)

	tx := addTx(t, s, someDay,
		leg{"Expenses.Everyday.Groceries", "100"},
		leg{"Expenses.Other", "50"},
		leg{"Assets.Cash", "-150"})

	report := run(t, s, Options{})

	require.Len(t, report.UnmatchedExpenses, 1)
	assert.Equal(t, "Expenses.Other", report.UnmatchedExpenses[0].Account)

	// Groceries still gets its budget pair; nothing is synthesized for Other.
	require.Len(t, tx.Splits, 5)
	assert.Empty(t, amountsOn(tx, "Budget.Other"))
	assert.Equal(t, []string{"-100"}, amountsOn(tx, "Budget.Everyday.Groceries"))
	assert.True(t, tx.Balanced())
}

func TestRun_StartDateFilter(t *testing.T) {
	s := ledger.NewMemoryStore(ledger.DefaultTree())
	old := addTx(t, s, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		leg{"Expenses.Everyday.Groceries", "10"},
		leg{"Assets.Cash", "-10"})
	recent := addTx(t, s, time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC),
		leg{"Expenses.Everyday.Groceries", "20"},
		leg{"Assets.Cash", "-20"})

	report := run(t, s, Options{StartDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)})

	assert.Equal(t, 1, report.TransactionsExamined)
	assert.Len(t, old.Splits, 2, "transactions before the start date are skipped")
	assert.Len(t, recent.Splits, 4)
}

func TestRun_DryRun(t *testing.T) {
	s := ledger.NewMemoryStore(ledger.DefaultTree())
	tx := addTx(t, s, someDay,
		leg{"Expenses.Everyday.Groceries", "100"},
		leg{"Assets.Cash", "-100"})

	report := run(t, s, Options{DryRun: true})

	assert.Equal(t, 1, report.TransactionsChanged)
	assert.Len(t, report.Synthesized, 2)
	assert.Len(t, tx.Splits, 2, "dry run never mutates")
}

func TestRun_CoalescesBudgetedFunds(t *testing.T) {
	s := ledger.NewMemoryStore(ledger.DefaultTree())
	tx := addTx(t, s, someDay,
		leg{"Expenses.Everyday.Groceries", "100"},
		leg{"Expenses.Everyday.Food", "50"},
		leg{"Assets.Cash", "-150"})

	run(t, s, Options{})

	require.Len(t, tx.Splits, 6)
	assert.Equal(t, []string{"-100"}, amountsOn(tx, "Budget.Everyday.Groceries"))
	assert.Equal(t, []string{"-50"}, amountsOn(tx, "Budget.Everyday.Food"))
	assert.Equal(t, []string{"150"}, amountsOn(tx, match.BudgetedFundsAccount),
		"one coalesced Budgeted Funds leg, not one per expense")
	assert.True(t, tx.Balanced())
}

type failingStore struct {
	*ledger.MemoryStore
	failID string
}

func (s *failingStore) BeginEdit(tx *model.Transaction) (ledger.Edit, error) {
	if tx.ID == s.failID {
		return nil, errors.New("store rejected edit")
	}
	return s.MemoryStore.BeginEdit(tx)
}

func TestRun_FailureIsolation(t *testing.T) {
	mem := ledger.NewMemoryStore(ledger.DefaultTree())
	bad := addTx(t, mem, someDay,
		leg{"Expenses.Everyday.Groceries", "10"},
		leg{"Assets.Cash", "-10"})
	good := addTx(t, mem, someDay,
		leg{"Expenses.Everyday.Food", "20"},
		leg{"Assets.Cash", "-20"})

	report := run(t, &failingStore{MemoryStore: mem, failID: bad.ID}, Options{})

	require.Len(t, report.Failures, 1)
	assert.Equal(t, bad.ID, report.Failures[0].TransactionID)
	assert.Len(t, bad.Splits, 2, "failed transaction is left as it was")
	assert.Len(t, good.Splits, 4, "other transactions still reconcile")
}
