package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/dukerupert/casa/internal/config"
	"github.com/dukerupert/casa/internal/database"
	"github.com/dukerupert/casa/internal/model"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate document key")
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("document store unavailable")
)

// Record is one stored document. Body is the JSON encoding of the entity;
// the other fields are copies used for filtering and ordering.
type Record struct {
	ID        string
	Owner     string
	Key       string
	Body      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Filter selects live documents. Zero fields match everything.
type Filter struct {
	Owner         string
	IncludeShared bool // with Owner, also match documents that have no owner
	Key           string
}

// DocumentStore persists JSON documents, one table per collection. Each
// operation borrows a connection from the pool and returns it before
// returning.
type DocumentStore struct {
	db      *database.DB
	tables  map[string]bool
	breaker *gobreaker.CircuitBreaker
}

func NewDocumentStore(db *database.DB) *DocumentStore {
	tables := make(map[string]bool)
	for name := range model.Factories() {
		tables[name] = true
	}
	return &DocumentStore{
		db:      db,
		tables:  tables,
		breaker: config.NewCircuitBreaker("documents", healthy),
	}
}

// healthy reports which outcomes leave the breaker's failure count alone.
func healthy(err error) bool {
	return err == nil ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDuplicate) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, errUnknownCollection)
}

var errUnknownCollection = errors.New("unknown collection")

func (s *DocumentStore) table(collection string) (string, error) {
	if !s.tables[collection] {
		return "", fmt.Errorf("%w: %q", errUnknownCollection, collection)
	}
	return collection, nil
}

func (s *DocumentStore) withConn(ctx context.Context, fn func(*sql.Conn) error) error {
	_, err := s.breaker.Execute(func() (any, error) {
		conn, err := s.db.Conn(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire connection: %w", err)
		}
		defer conn.Close()
		return nil, fn(conn)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func (s *DocumentStore) q(query string) string {
	return s.db.Dialect.Rebind(query)
}

func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// Insert stores a new document. A clash on the id or a unique lookup key
// returns ErrDuplicate.
func (s *DocumentStore) Insert(ctx context.Context, collection string, rec Record) error {
	table, err := s.table(collection)
	if err != nil {
		return err
	}
	return s.withConn(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, s.q(`INSERT INTO `+table+`
			(id, owner_id, lookup_key, body, created_at, updated_at, deleted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`),
			rec.ID, nullable(rec.Owner), nullable(rec.Key), string(rec.Body),
			rec.CreatedAt.UTC(), rec.UpdatedAt.UTC(), nullTime(rec.DeletedAt),
		)
		if err != nil {
			if s.db.Dialect.IsUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("insert into %s: %w", table, err)
		}
		return nil
	})
}

// Get returns the body of a document, tombstoned or not.
func (s *DocumentStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	table, err := s.table(collection)
	if err != nil {
		return nil, err
	}
	var body string
	err = s.withConn(ctx, func(conn *sql.Conn) error {
		err := conn.QueryRowContext(ctx, s.q(`SELECT body FROM `+table+` WHERE id = ?`), id).Scan(&body)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get from %s: %w", table, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return []byte(body), nil
}

// Find returns the bodies of live documents matching f, oldest first.
func (s *DocumentStore) Find(ctx context.Context, collection string, f Filter) ([][]byte, error) {
	table, err := s.table(collection)
	if err != nil {
		return nil, err
	}

	var (
		where = []string{"deleted_at IS NULL"}
		args  []any
	)
	if f.Owner != "" {
		if f.IncludeShared {
			where = append(where, "(owner_id = ? OR owner_id IS NULL)")
		} else {
			where = append(where, "owner_id = ?")
		}
		args = append(args, f.Owner)
	}
	if f.Key != "" {
		where = append(where, "lookup_key = ?")
		args = append(args, f.Key)
	}
	query := `SELECT body FROM ` + table + ` WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_at ASC, id ASC`

	bodies := make([][]byte, 0)
	err = s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, s.q(query), args...)
		if err != nil {
			return fmt.Errorf("find in %s: %w", table, err)
		}
		defer rows.Close()

		for rows.Next() {
			var body string
			if err := rows.Scan(&body); err != nil {
				return fmt.Errorf("scan %s: %w", table, err)
			}
			bodies = append(bodies, []byte(body))
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return bodies, nil
}

// Replace overwrites an existing document.
func (s *DocumentStore) Replace(ctx context.Context, collection string, rec Record) error {
	table, err := s.table(collection)
	if err != nil {
		return err
	}
	return s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, s.q(`UPDATE `+table+`
			SET owner_id = ?, lookup_key = ?, body = ?, updated_at = ?, deleted_at = ?
			WHERE id = ?`),
			nullable(rec.Owner), nullable(rec.Key), string(rec.Body),
			rec.UpdatedAt.UTC(), nullTime(rec.DeletedAt), rec.ID,
		)
		if err != nil {
			if s.db.Dialect.IsUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("update %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update %s: %w", table, err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Remove deletes a document row.
func (s *DocumentStore) Remove(ctx context.Context, collection, id string) error {
	table, err := s.table(collection)
	if err != nil {
		return err
	}
	return s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, s.q(`DELETE FROM `+table+` WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Count returns the number of live documents in a collection.
func (s *DocumentStore) Count(ctx context.Context, collection string) (int, error) {
	table, err := s.table(collection)
	if err != nil {
		return 0, err
	}
	var n int
	err = s.withConn(ctx, func(conn *sql.Conn) error {
		if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE deleted_at IS NULL`).Scan(&n); err != nil {
			return fmt.Errorf("count %s: %w", table, err)
		}
		return nil
	})
	return n, err
}

// Ping checks that a connection can be borrowed and used.
func (s *DocumentStore) Ping(ctx context.Context) error {
	return s.withConn(ctx, func(conn *sql.Conn) error {
		return conn.PingContext(ctx)
	})
}

// Collections lists the collection names the store accepts.
func (s *DocumentStore) Collections() []string {
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
