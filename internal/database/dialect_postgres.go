package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

type postgresDialect struct{}

func (postgresDialect) Name() string         { return "postgres" }
func (postgresDialect) DriverName() string   { return "postgres" }
func (postgresDialect) GooseDialect() string { return "postgres" }
func (postgresDialect) DSN(dsn string) string {
	return dsn
}

func (postgresDialect) Rebind(query string) string {
	return numberedPlaceholders(query)
}

func (postgresDialect) IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (postgresDialect) Configure(db *sql.DB, _ string) {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)
}
