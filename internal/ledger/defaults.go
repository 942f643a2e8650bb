package ledger

import "github.com/autobudget-dev/autobudget/internal/model"

// DefaultTree returns the account tree a new ledger starts with: the four
// mandatory envelope-budgeting accounts plus a starter set of expense/budget
// category pairs.
func DefaultTree() *model.Account {
	root := &model.Account{Name: "Root", Type: model.AccountTypeRoot}

	assets := &model.Account{Name: "Assets", Type: model.AccountTypeAsset, Placeholder: true}
	assets.AppendChild(&model.Account{Name: "Cash", Type: model.AccountTypeAsset})
	assets.AppendChild(&model.Account{Name: "Checking", Type: model.AccountTypeAsset})

	expenses := &model.Account{Name: "Expenses", Type: model.AccountTypeExpense}
	everyday := &model.Account{Name: "Everyday", Type: model.AccountTypeExpense, Placeholder: true}
	everyday.AppendChild(&model.Account{Name: "Groceries", Type: model.AccountTypeExpense})
	everyday.AppendChild(&model.Account{Name: "Food", Type: model.AccountTypeExpense})
	everyday.AppendChild(&model.Account{Name: "Transport", Type: model.AccountTypeExpense})
	expenses.AppendChild(everyday)

	budget := &model.Account{Name: "Budget", Type: model.AccountTypeAsset}
	budget.AppendChild(&model.Account{Name: "Budgeted Funds", Type: model.AccountTypeLiability})
	budget.AppendChild(&model.Account{Name: "Available to Budget", Type: model.AccountTypeAsset})
	budgetEveryday := &model.Account{Name: "Everyday", Type: model.AccountTypeAsset, Placeholder: true}
	budgetEveryday.AppendChild(&model.Account{Name: "Groceries", Type: model.AccountTypeAsset})
	budgetEveryday.AppendChild(&model.Account{Name: "Food", Type: model.AccountTypeAsset})
	budgetEveryday.AppendChild(&model.Account{Name: "Transport", Type: model.AccountTypeAsset})
	budget.AppendChild(budgetEveryday)

	equity := &model.Account{Name: "Equity", Type: model.AccountTypeEquity, Placeholder: true}
	equity.AppendChild(&model.Account{Name: "Opening Balances", Type: model.AccountTypeEquity})

	income := &model.Account{Name: "Income", Type: model.AccountTypeIncome}

	root.AppendChild(assets)
	root.AppendChild(expenses)
	root.AppendChild(budget)
	root.AppendChild(income)
	root.AppendChild(equity)
	return root
}
