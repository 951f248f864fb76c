package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const recordSchema = `
CREATE TABLE IF NOT EXISTS records (
	id TEXT PRIMARY KEY,
	date TEXT NOT NULL,
	name TEXT NOT NULL,
	imageBase64 TEXT,
	price TEXT,
	sugarIce TEXT,
	rating INTEGER,
	shop TEXT,
	moodNote TEXT,
	iconId TEXT NOT NULL,
	createdAt TEXT NOT NULL,
	brand TEXT,
	ingredients TEXT,
	calories INTEGER
);
CREATE INDEX IF NOT EXISTS idx_date ON records(date);
`

// NewSQLite opens the file-backed record database, creating the parent
// directory and schema as needed. Journal mode stays on the rollback
// journal so every committed mutation is durable on return.
func NewSQLite(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := conn.Exec(recordSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return conn, nil
}
