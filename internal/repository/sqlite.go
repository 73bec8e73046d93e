package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRepository implements Store on a single SQLite table.
type SQLiteRepository struct {
	db *sqlx.DB
}

// NewSQLiteRepository opens (and creates) the profile database
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sqlx.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func initSchema(db *sqlx.DB) error {
	createTables := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(createTables)
	return err
}

func (r *SQLiteRepository) Get(key string) (string, bool, error) {
	var value string
	err := r.db.Get(&value, `SELECT value FROM kv WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *SQLiteRepository) Set(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO kv(key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

func (r *SQLiteRepository) Remove(key string) error {
	_, err := r.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}

func (r *SQLiteRepository) Clear() error {
	_, err := r.db.Exec(`DELETE FROM kv`)
	return err
}

func (r *SQLiteRepository) Keys() ([]string, error) {
	var keys []string
	if err := r.db.Select(&keys, `SELECT key FROM kv ORDER BY key`); err != nil {
		return nil, err
	}
	return keys, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
