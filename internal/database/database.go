package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrations embed.FS

// goose keeps its base filesystem and dialect in package state.
var gooseMu sync.Mutex

// DB is a connection pool paired with the dialect it speaks.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open opens a SQLite database at the given path and runs migrations.
func Open(dbPath string) (*DB, error) {
	return OpenDriver("sqlite", dbPath)
}

// OpenDriver opens a database for the named driver family and runs the
// migrations for that dialect.
func OpenDriver(driver, dsn string) (*DB, error) {
	dialect, ok := DialectFor(driver)
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(dialect.DriverName(), dialect.DSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	dialect.Configure(db, dsn)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := runMigrations(db, dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &DB{DB: db, Dialect: dialect}, nil
}

func runMigrations(db *sql.DB, dialect Dialect) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	dir, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}
	goose.SetBaseFS(dir)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(dialect.GooseDialect()); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, dialect.Name()); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}
