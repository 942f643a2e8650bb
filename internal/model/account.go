package model

import "strings"

// PathSeparator joins account names into full names. Account names must never
// contain it.
const PathSeparator = "."

// AccountType classifies accounts in the ledger tree.
type AccountType string

const (
	AccountTypeRoot      AccountType = "root"
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeIncome    AccountType = "income"
	AccountTypeExpense   AccountType = "expense"
)

// Account is a node in a ledger's account tree. The tree owns its nodes;
// Parent is a non-owning back-reference.
type Account struct {
	Name        string
	Type        AccountType
	Placeholder bool // organizational only, never holds splits
	Parent      *Account
	Children    []*Account
}

// AppendChild attaches child as the last child of a and sets its parent
// back-reference.
func (a *Account) AppendChild(child *Account) {
	child.Parent = a
	a.Children = append(a.Children, child)
}

// FullName returns the separator-joined chain of ancestor names, excluding
// the root. The root itself has an empty full name.
func (a *Account) FullName() string {
	if a.Parent == nil {
		return ""
	}
	var names []string
	for n := a; n.Parent != nil; n = n.Parent {
		names = append(names, n.Name)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, PathSeparator)
}

// LookupByFullName descends from a one path segment at a time and returns the
// account at the given full name, relative to a.
func (a *Account) LookupByFullName(path string) (*Account, bool) {
	node := a
	for _, segment := range strings.Split(path, PathSeparator) {
		var next *Account
		for _, c := range node.Children {
			if c.Name == segment {
				next = c
				break
			}
		}
		if next == nil {
			return nil, false
		}
		node = next
	}
	return node, true
}

// Descendants returns every account below a in pre-order.
func (a *Account) Descendants() []*Account {
	var out []*Account
	var walk func(*Account)
	walk = func(n *Account) {
		for _, c := range n.Children {
			out = append(out, c)
			walk(c)
		}
	}
	walk(a)
	return out
}

// IsDescendantOf reports whether ancestor appears on a's parent chain.
func (a *Account) IsDescendantOf(ancestor *Account) bool {
	for n := a.Parent; n != nil; n = n.Parent {
		if n == ancestor {
			return true
		}
	}
	return false
}
