package match

import (
	"github.com/autobudget-dev/autobudget/internal/keyed"
	"github.com/autobudget-dev/autobudget/internal/model"
)

// SplitCorrespondence maps expense splits to the budget splits that offset
// them, keyed by split GUID. It is recomputed for every transaction.
type SplitCorrespondence = keyed.Map[*model.Split, string, *model.Split]

// IsExpenseEligible reports whether s sits on a regular expense account below
// the Expenses subtree.
func IsExpenseEligible(s *model.Split) bool {
	return isRegularExpenseAccount(s.Account) && underSubtree(s.Account, ExpensesRoot)
}

// IsBudgetEligible reports whether s sits on a regular budget account below
// the Budget subtree. The two reserved control accounts are never eligible.
func IsBudgetEligible(s *model.Split) bool {
	return isRegularBudgetAccount(s.Account) && underSubtree(s.Account, BudgetRoot)
}

// MatchSplits pairs each expense-eligible split of tx with a remaining
// budget-eligible split of equal and opposite amount on the corresponding
// budget account. A budget split is consumed by its first match, so no two
// expense splits ever share one budget split; two identical expense legs need
// two identical budget legs. Both the outer iteration and the tie-break among
// equally qualifying budget splits follow the transaction's split order,
// which makes the pairing deterministic for a fixed ledger.
func MatchSplits(tx *model.Transaction, accounts *AccountCorrespondence) *SplitCorrespondence {
	byID := make(map[string]*model.Split, len(tx.Splits))
	for _, s := range tx.Splits {
		byID[s.ID] = s
	}
	m := keyed.NewMap[*model.Split, string, *model.Split](
		func(s *model.Split) string { return s.ID },
		func(id string) *model.Split { return byID[id] },
	)

	// Pool of budget splits still available for pairing.
	var pool []*model.Split
	for _, s := range tx.Splits {
		if IsBudgetEligible(s) {
			pool = append(pool, s)
		}
	}

	for _, es := range tx.Splits {
		if !IsExpenseEligible(es) {
			continue
		}
		counterpart, err := accounts.Get(es.Account)
		if err != nil {
			continue // no budget counterpart; the driver reports these
		}
		want := es.Amount.Neg()
		for i, bs := range pool {
			if bs.Account == counterpart && bs.Amount.Equal(want) {
				m.Put(es, bs)
				pool = append(pool[:i], pool[i+1:]...)
				break
			}
		}
	}
	return m
}
