// Package database persists the card collection, the vocabulary
// catalogue and daily review statistics through sqlx. SQLite is the
// default backend; Postgres can be selected with DB_TYPE=postgres and
// a DATABASE_URL.
package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Config selects the database backend.
type Config struct {
	// Driver is "sqlite" or "postgres".
	Driver string
	// DSN is the Postgres connection string. Ignored for sqlite.
	DSN string
	// DataDir is where the sqlite file lives. Ignored for postgres.
	DataDir string
}

// ConfigFromEnv reads the backend selection from the environment:
// DB_TYPE, DATABASE_URL and DATA_DIR.
func ConfigFromEnv() Config {
	cfg := Config{
		Driver:  os.Getenv("DB_TYPE"),
		DSN:     os.Getenv("DATABASE_URL"),
		DataDir: os.Getenv("DATA_DIR"),
	}
	if cfg.Driver == "" {
		cfg.Driver = "sqlite"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	return cfg
}

// Connect opens the database and initializes the schema.
func Connect(cfg Config) (*sqlx.DB, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return connectSQLite(cfg.DataDir)
	case "postgres":
		db, err := sqlx.Connect("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %v", err)
		}
		if err := initializeSchema(db); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func connectSQLite(dataDir string) (*sqlx.DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dataDir, "vocabsrs.db")
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %v", err)
	}

	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// ConnectSQLiteInMemory opens a throwaway in-memory database. Used by
// tests.
func ConnectSQLiteInMemory() (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// initializeSchema creates necessary tables if they don't exist. The
// DDL is kept portable between sqlite and postgres: every table has a
// natural text key, so no auto-increment columns are needed.
func initializeSchema(db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS cards (
			word_id TEXT PRIMARY KEY,
			source_word TEXT NOT NULL,
			target_word TEXT NOT NULL,
			language_pair TEXT NOT NULL,
			level TEXT NOT NULL,
			lesson_id TEXT NOT NULL,
			pronunciation TEXT NOT NULL DEFAULT '',
			example_sentence TEXT NOT NULL DEFAULT '',
			ease_factor REAL NOT NULL DEFAULT 2.5,
			interval INTEGER NOT NULL DEFAULT 0,
			repetitions INTEGER NOT NULL DEFAULT 0,
			next_review_date TIMESTAMP NOT NULL,
			last_reviewed_at TIMESTAMP,
			last_quality INTEGER NOT NULL DEFAULT 0,
			total_reviews INTEGER NOT NULL DEFAULT 0,
			correct_reviews INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS vocabulary (
			word_id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			target TEXT NOT NULL,
			pronunciation TEXT NOT NULL DEFAULT '',
			example_sentence TEXT NOT NULL DEFAULT '',
			example_translation TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			lesson_id TEXT NOT NULL,
			level TEXT NOT NULL,
			language_pair TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT 'other',
			added_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS review_stats (
			day TEXT PRIMARY KEY,
			reviews INTEGER NOT NULL DEFAULT 0,
			correct INTEGER NOT NULL DEFAULT 0,
			cards_added INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cards_next_review ON cards (next_review_date)`,
		`CREATE INDEX IF NOT EXISTS idx_vocabulary_lesson ON vocabulary (lesson_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %v", err)
		}
	}
	return nil
}
