package database

import (
	"database/sql"
	"strconv"
	"strings"
)

// Dialect isolates the differences between the supported SQL backends.
type Dialect interface {
	// Name is the driver family: "sqlite", "postgres" or "mysql".
	Name() string
	DriverName() string
	DSN(dsn string) string
	// GooseDialect is the dialect name understood by goose.
	GooseDialect() string
	// Rebind rewrites ? placeholders for drivers that need another syntax.
	Rebind(query string) string
	IsUniqueViolation(err error) bool
	Configure(db *sql.DB, dsn string)
}

// DialectFor returns the dialect for a driver name.
func DialectFor(driver string) (Dialect, bool) {
	switch strings.ToLower(driver) {
	case "", "sqlite", "sqlite3":
		return sqliteDialect{}, true
	case "postgres", "postgresql":
		return postgresDialect{}, true
	case "mysql":
		return mysqlDialect{}, true
	}
	return nil, false
}

// numberedPlaceholders converts ? placeholders to $1, $2 and so on. Queries
// in this module never contain a literal question mark.
func numberedPlaceholders(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			b.WriteByte(query[i])
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}
