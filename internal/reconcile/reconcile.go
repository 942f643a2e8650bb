// Package reconcile drives envelope-budget reconciliation over a ledger: it
// validates the mandatory account structure, matches expense accounts to
// budget accounts once, then walks the candidate transactions and synthesizes
// the budget splits that are still missing.
package reconcile

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/autobudget-dev/autobudget/internal/ledger"
	"github.com/autobudget-dev/autobudget/internal/match"
	"github.com/autobudget-dev/autobudget/internal/model"
)

// MissingStructureError reports a mandatory account that is absent from the
// ledger or has the wrong type. It aborts the run before any mutation.
type MissingStructureError struct {
	Path     string
	WantType model.AccountType
}

func (e *MissingStructureError) Error() string {
	return fmt.Sprintf("ledger does not define a %s account named %q, which autobudget requires", e.WantType, e.Path)
}

var mandatoryAccounts = []struct {
	path string
	typ  model.AccountType
}{
	{match.ExpensesRoot, model.AccountTypeExpense},
	{match.BudgetRoot, model.AccountTypeAsset},
	{match.BudgetedFundsAccount, model.AccountTypeLiability},
	{match.AvailableToBudgetAccount, model.AccountTypeAsset},
}

// Options control a reconciliation run.
type Options struct {
	// StartDate excludes transactions dated before it. Zero means no lower
	// bound.
	StartDate time.Time

	// DryRun reports what would change without opening any edit scope.
	DryRun bool
}

// Reconciler runs reconciliation passes against a ledger store.
type Reconciler struct {
	store  ledger.Store
	logger *slog.Logger
	opts   Options
}

// New creates a Reconciler. A nil logger falls back to slog.Default.
func New(store ledger.Store, logger *slog.Logger, opts Options) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: store, logger: logger, opts: opts}
}

// SplitNote identifies one split the reconciler could not pair.
type SplitNote struct {
	TransactionID string
	SplitID       string
	Account       string
	Amount        decimal.Decimal
}

// TransactionFailure records a transaction whose edit scope could not be
// committed. Other transactions are unaffected.
type TransactionFailure struct {
	TransactionID string
	Err           error
}

// Report summarizes one reconciliation run.
type Report struct {
	TransactionsExamined int
	TransactionsChanged  int

	// Synthesized lists every split this run created, including the coalesced
	// Budgeted Funds leg per transaction.
	Synthesized []SplitNote

	// UnmatchedExpenses lists expense splits with no known budget counterpart
	// account (informational, nothing synthesized for them).
	UnmatchedExpenses []SplitNote

	// UnbalancedBudgets lists budget splits no expense split accounts for,
	// usually a manual adjustment (warning, never mutated).
	UnbalancedBudgets []SplitNote

	Failures []TransactionFailure
}

// Run executes one reconciliation pass. Structural validation failures abort
// the run before any mutation; per-transaction failures are recorded in the
// report and processing continues.
func (r *Reconciler) Run() (*Report, error) {
	if err := r.validateStructure(); err != nil {
		return nil, err
	}
	budgetedFunds, _ := r.store.LookupAccount(match.BudgetedFundsAccount)
	accounts := match.MatchAccounts(r.store.RootAccount())

	report := &Report{}
	for _, tx := range r.store.Transactions() {
		if !r.selected(tx, accounts) {
			continue
		}
		report.TransactionsExamined++
		if err := r.reconcileTransaction(tx, accounts, budgetedFunds, report); err != nil {
			r.logger.Error("reconciliation failed", "transaction", tx.ID, "error", err)
			report.Failures = append(report.Failures, TransactionFailure{TransactionID: tx.ID, Err: err})
		}
	}
	return report, nil
}

func (r *Reconciler) validateStructure() error {
	for _, want := range mandatoryAccounts {
		acc, ok := r.store.LookupAccount(want.path)
		if !ok || acc.Type != want.typ {
			return &MissingStructureError{Path: want.path, WantType: want.typ}
		}
	}
	return nil
}

// selected reports whether tx is a reconciliation candidate: dated on or
// after the start date, with at least one split on an expense account that
// has a known budget counterpart.
func (r *Reconciler) selected(tx *model.Transaction, accounts *match.AccountCorrespondence) bool {
	if !r.opts.StartDate.IsZero() && tx.Date.Before(r.opts.StartDate) {
		return false
	}
	for _, s := range tx.Splits {
		if accounts.Contains(s.Account) {
			return true
		}
	}
	return false
}

func (r *Reconciler) reconcileTransaction(tx *model.Transaction, accounts *match.AccountCorrespondence, budgetedFunds *model.Account, report *Report) error {
	splits := match.MatchSplits(tx, accounts)

	consumed := make(map[string]bool, splits.Len())
	for _, bs := range splits.Values() {
		consumed[bs.ID] = true
	}

	// Budget legs no expense leg accounts for signal an out-of-band
	// adjustment. Report and leave them alone.
	for _, s := range tx.Splits {
		if match.IsBudgetEligible(s) && !consumed[s.ID] {
			r.logger.Warn("unbalanced budget split, likely a manual adjustment",
				"transaction", tx.ID, "account", s.Account.FullName(), "amount", s.Amount)
			report.UnbalancedBudgets = append(report.UnbalancedBudgets, note(tx, s))
		}
	}

	// Expense legs that still need a budget side.
	type synthesis struct {
		counterpart *model.Account
		amount      decimal.Decimal
	}
	var pending []synthesis
	funds := decimal.Zero
	for _, s := range tx.Splits {
		if !match.IsExpenseEligible(s) || splits.Contains(s) {
			continue
		}
		counterpart, err := accounts.Get(s.Account)
		if err != nil {
			r.logger.Info("no budget account matches expense split",
				"transaction", tx.ID, "account", s.Account.FullName(), "amount", s.Amount)
			report.UnmatchedExpenses = append(report.UnmatchedExpenses, note(tx, s))
			continue
		}
		pending = append(pending, synthesis{counterpart: counterpart, amount: s.Amount})
		funds = funds.Add(s.Amount)
	}

	if len(pending) == 0 {
		return nil
	}
	report.TransactionsChanged++
	if r.opts.DryRun {
		// Report the would-be splits; they have no ID until synthesized.
		for _, p := range pending {
			report.Synthesized = append(report.Synthesized, SplitNote{
				TransactionID: tx.ID,
				Account:       p.counterpart.FullName(),
				Amount:        p.amount.Neg(),
			})
		}
		report.Synthesized = append(report.Synthesized, SplitNote{
			TransactionID: tx.ID,
			Account:       budgetedFunds.FullName(),
			Amount:        funds,
		})
		return nil
	}

	edit, err := r.store.BeginEdit(tx)
	if err != nil {
		return fmt.Errorf("opening edit scope: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = edit.Rollback()
		}
	}()

	var created []*model.Split
	for _, p := range pending {
		sp, err := edit.AppendSplit(p.counterpart, p.amount.Neg())
		if err != nil {
			return fmt.Errorf("appending budget split: %w", err)
		}
		created = append(created, sp)
	}
	// One coalesced Budgeted Funds leg per transaction, not one per expense.
	sp, err := edit.AppendSplit(budgetedFunds, funds)
	if err != nil {
		return fmt.Errorf("appending budgeted funds split: %w", err)
	}
	created = append(created, sp)

	if err := edit.Commit(); err != nil {
		return fmt.Errorf("committing edit scope: %w", err)
	}
	committed = true

	for _, sp := range created {
		report.Synthesized = append(report.Synthesized, note(tx, sp))
	}
	return nil
}

func note(tx *model.Transaction, s *model.Split) SplitNote {
	return SplitNote{
		TransactionID: tx.ID,
		SplitID:       s.ID,
		Account:       s.Account.FullName(),
		Amount:        s.Amount,
	}
}
