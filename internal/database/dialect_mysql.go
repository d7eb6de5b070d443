package database

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

type mysqlDialect struct{}

func (mysqlDialect) Name() string         { return "mysql" }
func (mysqlDialect) DriverName() string   { return "mysql" }
func (mysqlDialect) GooseDialect() string { return "mysql" }

func (mysqlDialect) DSN(dsn string) string {
	if strings.Contains(dsn, "parseTime=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&parseTime=true"
	}
	return dsn + "?parseTime=true"
}

func (mysqlDialect) Rebind(query string) string { return query }

func (mysqlDialect) IsUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

func (mysqlDialect) Configure(db *sql.DB, _ string) {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
}
