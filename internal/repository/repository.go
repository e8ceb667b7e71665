// Package repository holds the SQL data access for the inventory store.
//
// Every method takes an optional *sql.Tx. The store runs on a single
// connection, so any read issued while a transaction is open must go through
// that transaction or it will wait on itself.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"

	"github.com/stockroom/warehouse/internal/util"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an insert or update hits a UNIQUE constraint.
	ErrDuplicate = errors.New("duplicate")

	// ErrReference is returned when a FOREIGN KEY points at a missing row.
	ErrReference = errors.New("referenced row does not exist")
)

// dialect builds the dynamic list and report queries.
var dialect = goqu.Dialect("sqlite3")

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getExecer(db *sql.DB, tx *sql.Tx) querier {
	if tx != nil {
		return tx
	}
	return db
}

type rowScanner interface {
	Scan(dest ...any) error
}

// translate maps driver constraint failures to package sentinels.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		return fmt.Errorf("%s: %w", op, ErrReference)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// toSQL renders a goqu expression as a prepared statement.
func toSQL(ds interface {
	ToSQL() (string, []any, error)
}) (string, []any, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("building query: %w", err)
	}
	return query, args, nil
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func timestamp(t time.Time) string {
	return util.FormatTimestamp(t)
}

func parseTimestamp(s string) time.Time {
	t, _ := util.ParseTimestamp(s)
	return t
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps q for a substring match. Wildcards in q match literally,
// so the pattern must be used with ESCAPE '\'.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(q)) + "%"
}

// containsLike matches col against q as a literal substring.
func containsLike(col, q string) exp.LiteralExpression {
	return goqu.L(`? LIKE ? ESCAPE '\'`, goqu.I(col), likePattern(q))
}
