package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the single-connection writer pool and keeps a separate read-only
// pool for ad-hoc queries.
type DB struct {
	*sql.DB
	reader *sql.DB
}

// Open opens (creating if needed) the SQLite file at path and brings its
// schema up to date.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	writer, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	writer.SetMaxOpenConns(1)

	if err := writer.Ping(); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{DB: writer}

	if _, _, err := RunMigrations(db); err != nil {
		writer.Close()
		return nil, err
	}

	reader, err := openReader(path)
	if err != nil {
		writer.Close()
		return nil, err
	}
	db.reader = reader

	return db, nil
}

// OpenReadOnly opens an existing database file without creating it or
// touching its schema. Both pools are the read-only one, so writes fail.
func OpenReadOnly(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	reader, err := openReader(path)
	if err != nil {
		return nil, err
	}

	if err := reader.Ping(); err != nil {
		reader.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: reader, reader: reader}, nil
}

func openReader(path string) (*sql.DB, error) {
	reader, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro&_pragma=query_only(1)&_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open read-only database: %w", err)
	}
	return reader, nil
}

// NewFromSQL wraps an existing handle for both writing and reading.
func NewFromSQL(conn *sql.DB) *DB {
	return &DB{DB: conn, reader: conn}
}

func (db *DB) Reader() *sql.DB {
	return db.reader
}

func (db *DB) Close() error {
	var readerErr error
	if db.reader != nil && db.reader != db.DB {
		readerErr = db.reader.Close()
	}
	if err := db.DB.Close(); err != nil {
		return err
	}
	return readerErr
}
