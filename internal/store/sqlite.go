// Package store persists the shop's Inventory and ShopRegions tables in
// sqlite. Column names are stable for compatibility with existing databases.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"servershop.gg/internal/shop"
)

type SQLiteStore struct {
	db *sql.DB
}

func Open(path string) (*SQLiteStore, error) {
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

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS Inventory (
			ID INTEGER NOT NULL,
			Price INTEGER NOT NULL,
			Stock INTEGER NOT NULL,
			MaxStock INTEGER NOT NULL,
			RestockTime INTEGER NOT NULL,
			RestockType INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ShopRegions (
			Region TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) LoadItems() ([]shop.Item, error) {
	rows, err := s.db.Query(`SELECT ID, Price, Stock, MaxStock, RestockTime, RestockType FROM Inventory`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []shop.Item
	for rows.Next() {
		var it shop.Item
		if err := rows.Scan(&it.ID, &it.Price, &it.Stock, &it.MaxStock, &it.RestockTime, &it.RestockType); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) LoadRegions() ([]string, error) {
	rows, err := s.db.Query(`SELECT Region FROM ShopRegions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) InsertItem(it shop.Item) error {
	_, err := s.db.Exec(
		`INSERT INTO Inventory (ID, Price, Stock, MaxStock, RestockTime, RestockType) VALUES (?,?,?,?,?,?)`,
		it.ID, it.Price, it.Stock, it.MaxStock, it.RestockTime, it.RestockType)
	return err
}

// columns whitelists UpdateField targets; field names come from operator
// input upstream.
var columns = map[shop.Field]string{
	shop.FieldPrice:       "Price",
	shop.FieldStock:       "Stock",
	shop.FieldMaxStock:    "MaxStock",
	shop.FieldRestockTime: "RestockTime",
	shop.FieldRestockType: "RestockType",
}

func (s *SQLiteStore) UpdateField(id int, field shop.Field, value int) error {
	col, ok := columns[field]
	if !ok {
		return fmt.Errorf("unknown inventory column %q", field)
	}
	_, err := s.db.Exec(fmt.Sprintf(`UPDATE Inventory SET %s = ? WHERE ID = ?`, col), value, id)
	return err
}

func (s *SQLiteStore) InsertRegion(name string) error {
	_, err := s.db.Exec(`INSERT INTO ShopRegions (Region) VALUES (?)`, name)
	return err
}

func (s *SQLiteStore) DeleteRegion(name string) error {
	_, err := s.db.Exec(`DELETE FROM ShopRegions WHERE Region = ?`, name)
	return err
}
