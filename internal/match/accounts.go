// Package match derives the correspondence between expense accounts and
// their shadow budget accounts, and between the expense and budget legs of a
// single transaction.
package match

import (
	"strings"

	"github.com/autobudget-dev/autobudget/internal/keyed"
	"github.com/autobudget-dev/autobudget/internal/model"
)

// Reserved account full names (exact, case-sensitive). The two control
// accounts under Budget never take part in matching.
const (
	ExpensesRoot             = "Expenses"
	BudgetRoot               = "Budget"
	BudgetedFundsAccount     = BudgetRoot + model.PathSeparator + "Budgeted Funds"
	AvailableToBudgetAccount = BudgetRoot + model.PathSeparator + "Available to Budget"
)

// AccountCorrespondence maps each regular expense account to its budget
// counterpart, keyed by full account name. It is read-only once built and
// valid for the lifetime of one ledger snapshot.
type AccountCorrespondence = keyed.Map[*model.Account, string, *model.Account]

// MatchAccounts builds the expense-to-budget account correspondence for a
// ledger root. Every regular account under Budget is paired with the account
// found by rewriting the leading Budget path segment to Expenses; pairs whose
// expense side is missing or not a regular expense account are excluded, not
// an error.
func MatchAccounts(root *model.Account) *AccountCorrespondence {
	m := keyed.NewMap[*model.Account, string, *model.Account](
		(*model.Account).FullName,
		func(path string) *model.Account {
			acc, _ := root.LookupByFullName(path)
			return acc
		},
	)

	budget, ok := root.LookupByFullName(BudgetRoot)
	if !ok {
		return m
	}
	for _, ba := range budget.Descendants() {
		if !isRegularBudgetAccount(ba) {
			continue
		}
		expensePath := ExpensesRoot + strings.TrimPrefix(ba.FullName(), BudgetRoot)
		ea, ok := root.LookupByFullName(expensePath)
		if !ok || !isRegularExpenseAccount(ea) {
			continue
		}
		m.Put(ea, ba)
	}
	return m
}

func isRegularBudgetAccount(a *model.Account) bool {
	full := a.FullName()
	return full != BudgetedFundsAccount &&
		full != AvailableToBudgetAccount &&
		!a.Placeholder &&
		a.Type == model.AccountTypeAsset
}

func isRegularExpenseAccount(a *model.Account) bool {
	return !a.Placeholder && a.Type == model.AccountTypeExpense
}

func underSubtree(a *model.Account, rootName string) bool {
	return strings.HasPrefix(a.FullName(), rootName+model.PathSeparator)
}
