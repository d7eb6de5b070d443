package database

import (
	"database/sql"
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type sqliteDialect struct{}

func (sqliteDialect) Name() string         { return "sqlite" }
func (sqliteDialect) DriverName() string   { return "sqlite" }
func (sqliteDialect) GooseDialect() string { return "sqlite3" }

func (sqliteDialect) DSN(dsn string) string {
	if dsn == "" {
		dsn = "casa.db"
	}
	if strings.Contains(dsn, "_pragma") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	pragmas := "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	if !isMemory(dsn) {
		pragmas += "&_pragma=journal_mode(WAL)"
	}
	return dsn + sep + pragmas
}

func (sqliteDialect) Rebind(query string) string { return query }

func (sqliteDialect) IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

func (sqliteDialect) Configure(db *sql.DB, dsn string) {
	// Every connection to :memory: is its own database.
	if isMemory(dsn) {
		db.SetMaxOpenConns(1)
		db.SetConnMaxIdleTime(0)
		db.SetConnMaxLifetime(0)
	}
}

func isMemory(dsn string) bool {
	return strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
