package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/autobudget-dev/autobudget/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id          TEXT PRIMARY KEY,
	parent_id   TEXT REFERENCES accounts(id),
	name        TEXT NOT NULL,
	type        TEXT NOT NULL,
	placeholder INTEGER NOT NULL DEFAULT 0,
	position    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS transactions (
	id          TEXT PRIMARY KEY,
	date        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	currency    TEXT NOT NULL DEFAULT 'EUR',
	position    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS splits (
	id         TEXT PRIMARY KEY,
	tx_id      TEXT NOT NULL REFERENCES transactions(id),
	account_id TEXT NOT NULL REFERENCES accounts(id),
	amount     TEXT NOT NULL,
	position   INTEGER NOT NULL
);
`

const dateLayout = "2006-01-02"

// SQLiteStore persists a ledger in a SQLite file. The whole ledger is loaded
// into memory at open; edits write through inside a SQL transaction so a
// failure aborts only that transaction's changes.
type SQLiteStore struct {
	*MemoryStore
	db         *sql.DB
	accountIDs map[*model.Account]string
}

// CreateSQLite writes a new ledger file containing the given account tree and
// no transactions, and returns the opened store.
func CreateSQLite(path string, root *model.Account) (*SQLiteStore, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	s := &SQLiteStore{
		MemoryStore: NewMemoryStore(root),
		db:          db,
		accountIDs:  make(map[*model.Account]string),
	}

	dbtx, err := db.Begin()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("beginning account insert: %w", err)
	}
	pos := 0
	if err := s.insertAccount(dbtx, root, "", &pos); err != nil {
		_ = dbtx.Rollback()
		_ = db.Close()
		return nil, err
	}
	if err := dbtx.Commit(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("committing account insert: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) insertAccount(dbtx *sql.Tx, acc *model.Account, parentID string, pos *int) error {
	id := uuid.NewString()
	s.accountIDs[acc] = id

	var parent any
	if parentID != "" {
		parent = parentID
	}
	_, err := dbtx.Exec(
		`INSERT INTO accounts (id, parent_id, name, type, placeholder, position) VALUES (?, ?, ?, ?, ?, ?)`,
		id, parent, acc.Name, string(acc.Type), acc.Placeholder, *pos,
	)
	if err != nil {
		return fmt.Errorf("inserting account %q: %w", acc.FullName(), err)
	}
	*pos++
	for _, c := range acc.Children {
		if err := s.insertAccount(dbtx, c, id, pos); err != nil {
			return err
		}
	}
	return nil
}

// OpenSQLite loads an existing ledger file.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db, accountIDs: make(map[*model.Account]string)}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return db, nil
}

func (s *SQLiteStore) load() error {
	accounts := make(map[string]*model.Account)
	var root *model.Account

	rows, err := s.db.Query(`SELECT id, parent_id, name, type, placeholder FROM accounts ORDER BY position`)
	if err != nil {
		return fmt.Errorf("reading accounts: %w", err)
	}
	defer rows.Close()

	type accountRow struct {
		id, parentID string
	}
	var order []accountRow
	for rows.Next() {
		var id, name, typ string
		var parentID sql.NullString
		var placeholder bool
		if err := rows.Scan(&id, &parentID, &name, &typ, &placeholder); err != nil {
			return fmt.Errorf("scanning account: %w", err)
		}
		acc := &model.Account{Name: name, Type: model.AccountType(typ), Placeholder: placeholder}
		accounts[id] = acc
		s.accountIDs[acc] = id
		if parentID.Valid {
			order = append(order, accountRow{id: id, parentID: parentID.String})
		} else {
			if root != nil {
				return fmt.Errorf("ledger has more than one root account")
			}
			root = acc
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading accounts: %w", err)
	}
	if root == nil {
		return fmt.Errorf("ledger has no root account")
	}

	// Link children in position order.
	for _, r := range order {
		parent, ok := accounts[r.parentID]
		if !ok {
			return fmt.Errorf("account %s references unknown parent %s", r.id, r.parentID)
		}
		parent.AppendChild(accounts[r.id])
	}

	s.MemoryStore = NewMemoryStore(root)

	txs := make(map[string]*model.Transaction)
	txRows, err := s.db.Query(`SELECT id, date, description, currency FROM transactions ORDER BY position`)
	if err != nil {
		return fmt.Errorf("reading transactions: %w", err)
	}
	defer txRows.Close()
	for txRows.Next() {
		var id, dateStr, description, currency string
		if err := txRows.Scan(&id, &dateStr, &description, &currency); err != nil {
			return fmt.Errorf("scanning transaction: %w", err)
		}
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return fmt.Errorf("parsing date of transaction %s: %w", id, err)
		}
		tx := &model.Transaction{ID: id, Date: date, Description: description, Currency: currency}
		txs[id] = tx
		s.AddTransaction(tx)
	}
	if err := txRows.Err(); err != nil {
		return fmt.Errorf("reading transactions: %w", err)
	}

	splitRows, err := s.db.Query(`SELECT id, tx_id, account_id, amount FROM splits ORDER BY position`)
	if err != nil {
		return fmt.Errorf("reading splits: %w", err)
	}
	defer splitRows.Close()
	for splitRows.Next() {
		var id, txID, accountID, amountStr string
		if err := splitRows.Scan(&id, &txID, &accountID, &amountStr); err != nil {
			return fmt.Errorf("scanning split: %w", err)
		}
		tx, ok := txs[txID]
		if !ok {
			return fmt.Errorf("split %s references unknown transaction %s", id, txID)
		}
		acc, ok := accounts[accountID]
		if !ok {
			return fmt.Errorf("split %s references unknown account %s", id, accountID)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return fmt.Errorf("parsing amount of split %s: %w", id, err)
		}
		tx.Splits = append(tx.Splits, &model.Split{
			ID:          id,
			Account:     acc,
			Amount:      amount,
			Transaction: tx,
		})
	}
	return splitRows.Err()
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InsertTransaction persists a new transaction with its splits and adds it to
// the in-memory ledger.
func (s *SQLiteStore) InsertTransaction(tx *model.Transaction) error {
	dbtx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction insert: %w", err)
	}
	_, err = dbtx.Exec(
		`INSERT INTO transactions (id, date, description, currency, position) VALUES (?, ?, ?, ?, ?)`,
		tx.ID, tx.Date.Format(dateLayout), tx.Description, tx.Currency, len(s.txs),
	)
	if err != nil {
		_ = dbtx.Rollback()
		return fmt.Errorf("inserting transaction %s: %w", tx.ID, err)
	}
	for i, sp := range tx.Splits {
		if err := insertSplit(dbtx, s.accountIDs, sp, i); err != nil {
			_ = dbtx.Rollback()
			return err
		}
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("committing transaction %s: %w", tx.ID, err)
	}
	s.AddTransaction(tx)
	return nil
}

func insertSplit(dbtx *sql.Tx, accountIDs map[*model.Account]string, sp *model.Split, position int) error {
	accountID, ok := accountIDs[sp.Account]
	if !ok {
		return fmt.Errorf("split %s references an account not in this ledger", sp.ID)
	}
	_, err := dbtx.Exec(
		`INSERT INTO splits (id, tx_id, account_id, amount, position) VALUES (?, ?, ?, ?, ?)`,
		sp.ID, sp.Transaction.ID, accountID, sp.Amount.String(), position,
	)
	if err != nil {
		return fmt.Errorf("inserting split %s: %w", sp.ID, err)
	}
	return nil
}

// BeginEdit implements Store. Staged splits are written to the database and
// the in-memory transaction together on Commit.
func (s *SQLiteStore) BeginEdit(tx *model.Transaction) (Edit, error) {
	return &sqliteEdit{store: s, mem: &memoryEdit{tx: tx}}, nil
}

type sqliteEdit struct {
	store *SQLiteStore
	mem   *memoryEdit
}

func (e *sqliteEdit) AppendSplit(account *model.Account, amount decimal.Decimal) (*model.Split, error) {
	return e.mem.AppendSplit(account, amount)
}

func (e *sqliteEdit) Commit() error {
	if e.mem.closed {
		return nil
	}

	// Enforce the balance invariant before anything reaches disk.
	sum := decimal.Zero
	for _, sp := range e.mem.tx.Splits {
		sum = sum.Add(sp.Amount)
	}
	for _, sp := range e.mem.staged {
		sum = sum.Add(sp.Amount)
	}
	if !sum.IsZero() {
		_ = e.mem.Rollback()
		return fmt.Errorf("transaction %s would not balance: residue %s", e.mem.tx.ID, sum)
	}

	dbtx, err := e.store.db.Begin()
	if err != nil {
		_ = e.mem.Rollback()
		return fmt.Errorf("beginning split insert: %w", err)
	}
	base := len(e.mem.tx.Splits)
	for i, sp := range e.mem.staged {
		if err := insertSplit(dbtx, e.store.accountIDs, sp, base+i); err != nil {
			_ = dbtx.Rollback()
			_ = e.mem.Rollback()
			return err
		}
	}
	if err := dbtx.Commit(); err != nil {
		_ = e.mem.Rollback()
		return fmt.Errorf("committing split insert: %w", err)
	}
	return e.mem.Commit()
}

func (e *sqliteEdit) Rollback() error {
	return e.mem.Rollback()
}
