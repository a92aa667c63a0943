// Package ledger is the host's currency account service: named accounts with
// integer balances and atomic transfers recorded with a memo.
package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type SQLiteLedger struct {
	db *sql.DB
}

func Open(path string) (*SQLiteLedger, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS Accounts (
			Name TEXT PRIMARY KEY,
			Balance INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS Transfers (
			ID TEXT PRIMARY KEY,
			Src TEXT NOT NULL,
			Dst TEXT NOT NULL,
			Amount INTEGER NOT NULL,
			Memo TEXT,
			RecordedAt TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &SQLiteLedger{db: db}, nil
}

func (l *SQLiteLedger) Close() error { return l.db.Close() }

// EnsureAccount creates the account with an opening balance if it does not
// exist yet. Existing balances are left alone.
func (l *SQLiteLedger) EnsureAccount(name string, opening int64) error {
	if name == "" {
		return fmt.Errorf("empty account name")
	}
	_, err := l.db.Exec(`INSERT OR IGNORE INTO Accounts (Name, Balance) VALUES (?, ?)`, name, opening)
	return err
}

// Balance returns the account's balance; unknown accounts read as zero.
func (l *SQLiteLedger) Balance(account string) (int64, error) {
	var b int64
	err := l.db.QueryRow(`SELECT Balance FROM Accounts WHERE Name = ?`, account).Scan(&b)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return b, nil
}

// Transfer moves amount from src to dst in one transaction, recording the
// memo. On any error no balance has moved.
func (l *SQLiteLedger) Transfer(src, dst string, amount int64, memo string) error {
	if amount < 0 {
		return fmt.Errorf("negative transfer amount %d", amount)
	}
	if src == dst {
		return fmt.Errorf("transfer to self (%s)", src)
	}

	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var balance int64
	if err := tx.QueryRow(`SELECT Balance FROM Accounts WHERE Name = ?`, src).Scan(&balance); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("unknown account %q", src)
		}
		return err
	}
	if balance < amount {
		return fmt.Errorf("account %q is short %d", src, amount-balance)
	}
	if _, err := tx.Exec(`INSERT OR IGNORE INTO Accounts (Name, Balance) VALUES (?, 0)`, dst); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE Accounts SET Balance = Balance - ? WHERE Name = ?`, amount, src); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE Accounts SET Balance = Balance + ? WHERE Name = ?`, amount, dst); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`INSERT INTO Transfers (ID, Src, Dst, Amount, Memo, RecordedAt) VALUES (?,?,?,?,?,?)`,
		uuid.NewString(), src, dst, amount, memo, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}
	return tx.Commit()
}
