package library

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// driverName is go-sqlite3 with a Unicode-aware casefold() SQL function.
const driverName = "sqlite3_library"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("casefold", foldCase, true)
		},
	})
}

// foldCase applies Unicode full case folding. A Caser is not safe for
// concurrent use, so each call builds its own.
func foldCase(s string) string {
	return cases.Fold().String(s)
}

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin"
)

// Database owns the SQLite handle shared by the services.
type Database struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDatabase opens (or creates) the SQLite database at dbPath, applies schema
// migrations and seeds the default administrator.
func NewDatabase(ctx context.Context, dbPath string, creds Credentials, logger *zap.Logger) (*Database, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, storeErr("create db dir", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, storeErr("open sqlite", err)
	}

	if err := Initialize(ctx, db, creds, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("database ready", zap.String("path", dbPath))
	return &Database{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (d *Database) Close() error {
	return d.db.Close()
}

// Initialize creates the users, books and borrow_records tables when absent and
// seeds one admin row into an empty users table. Running it again is a no-op.
func Initialize(ctx context.Context, db *sql.DB, creds Credentials, logger *zap.Logger) error {
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		return storeErr("enable WAL", err)
	}
	if err := runMigrations(db); err != nil {
		return err
	}
	return seedAdmin(ctx, db, creds, logger)
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return storeErr("create migration driver", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return storeErr("create migrate instance", err)
	}

	// m.Close would also close db, which the services still need.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return storeErr("apply migrations", err)
	}
	return nil
}

func seedAdmin(ctx context.Context, db *sql.DB, creds Credentials, logger *zap.Logger) error {
	if creds == nil {
		creds = PlainCredentials{}
	}
	stored, err := creds.Hash(defaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hash default admin password: %w", err)
	}

	res, err := db.ExecContext(ctx, `
		INSERT INTO users (username, password, role)
		SELECT ?, ?, ?
		WHERE NOT EXISTS (SELECT 1 FROM users)`,
		defaultAdminUsername, stored, RoleAdmin)
	if err != nil {
		return storeErr("seed admin", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		logger.Info("seeded default admin account", zap.String("username", defaultAdminUsername))
	}
	return nil
}

// withTx runs fn inside a transaction and commits only when fn succeeds.
func withTx(ctx context.Context, db *sql.DB, op string, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(op, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storeErr(op, err)
	}
	return nil
}
