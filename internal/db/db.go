package db

import (
	"database/sql"
	"fmt"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

var (
	db   *sql.DB
	once sync.Once
)

type Config struct {
	Path string
}

func Init(cfg Config) error {
	var initErr error
	once.Do(func() {
		db, initErr = sql.Open("sqlite3", cfg.Path)
		if initErr != nil {
			return
		}
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		initErr = runMigrations(db)
	})
	return initErr
}

func GetDB() *sql.DB {
	return db
}

func Close() error {
	if db != nil {
		return db.Close()
	}
	return nil
}

type Migration struct {
	Version string
	SQL     string
}

var migrations = []Migration{
	{
		Version: "001_jobs",
		SQL: `
			CREATE TABLE IF NOT EXISTS jobs (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				token TEXT NOT NULL UNIQUE,
				filename TEXT NOT NULL,
				filepath TEXT NOT NULL,
				owner TEXT NOT NULL DEFAULT '',
				uploaded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				paid INTEGER NOT NULL DEFAULT 0,
				printed INTEGER NOT NULL DEFAULT 0,
				expires_at DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_jobs_owner ON jobs(owner);
		`,
	},
	{
		Version: "002_accounts",
		SQL: `
			CREATE TABLE IF NOT EXISTS accounts (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				username TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				is_admin INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
		`,
	},
}

func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := make(map[string]bool)
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}

	pending := make([]Migration, len(migrations))
	copy(pending, migrations)
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].Version < pending[j].Version
	})

	for _, m := range pending {
		if applied[m.Version] {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %s: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %s: %w", m.Version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", m.Version, err)
		}
	}

	return nil
}
