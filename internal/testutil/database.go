// Package testutil provides utilities for testing.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/stockroom/warehouse/internal/database"
)

// TestDB wraps a migrated in-memory store.
type TestDB struct {
	*database.DB
}

// NewTestDB creates an in-memory store with every migration applied.
// It is closed when the test finishes.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	db, err := database.NewMigratedInMemory(context.Background())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	return &TestDB{DB: db}
}

// RowCount returns the number of rows in table.
func (tdb *TestDB) RowCount(t *testing.T, table string) int {
	t.Helper()

	var count int
	if err := tdb.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
		t.Fatalf("failed to count rows in %s: %v", table, err)
	}
	return count
}

// AssertRowCount asserts the row count for a table.
func (tdb *TestDB) AssertRowCount(t *testing.T, table string, expected int) {
	t.Helper()

	if got := tdb.RowCount(t, table); got != expected {
		t.Errorf("expected %d rows in %s, got %d", expected, table, got)
	}
}

// AssertLedgerConsistent fails the test if any item's balance differs from
// the sum of its stock moves.
func (tdb *TestDB) AssertLedgerConsistent(t *testing.T) {
	t.Helper()

	rows, err := tdb.Query(`
		SELECT i.id, COALESCE(s.qty, 0),
			COALESCE((SELECT SUM(qty_delta) FROM stock_moves WHERE item_id = i.id), 0)
		FROM items i
		LEFT JOIN stocks s ON s.item_id = i.id`)
	if err != nil {
		t.Fatalf("failed to query balances: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID, qty, sum int64
		if err := rows.Scan(&itemID, &qty, &sum); err != nil {
			t.Fatalf("failed to scan balance: %v", err)
		}
		if qty != sum {
			t.Errorf("item %d: balance %d, ledger sum %d", itemID, qty, sum)
		}
		if qty < 0 {
			t.Errorf("item %d: negative balance %d", itemID, qty)
		}
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("failed to iterate balances: %v", err)
	}
}

// ExecSQL executes arbitrary SQL (useful for test setup).
func (tdb *TestDB) ExecSQL(t *testing.T, sql string, args ...any) {
	t.Helper()

	if _, err := tdb.Exec(sql, args...); err != nil {
		t.Fatalf("failed to execute SQL: %v\nSQL: %s", err, sql)
	}
}
