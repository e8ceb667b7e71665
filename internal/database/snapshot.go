package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ErrIncompatibleSnapshot is returned when an imported file is not a store
// at the same schema version.
var ErrIncompatibleSnapshot = errors.New("incompatible snapshot")

// snapshotTables lists data tables parents first.
var snapshotTables = []string{
	"categories",
	"items",
	"operators",
	"docs",
	"doc_lines",
	"stocks",
	"stock_moves",
}

// ImportResult describes a completed snapshot import.
type ImportResult struct {
	// PreviousBackup is the copy of the replaced data, empty when no backup
	// directory is configured.
	PreviousBackup string         `json:"backup,omitempty"`
	Rows           map[string]int `json:"rows"`
}

// ExportSnapshot writes a consistent copy of the whole store to w.
// Writers are held off until the copy is taken.
func (db *DB) ExportSnapshot(ctx context.Context, w io.Writer) (int64, error) {
	tmp := filepath.Join(os.TempDir(), "warehouse-export-"+uuid.NewString()+".db")
	defer os.Remove(tmp)

	db.gate.Lock()
	err := db.vacuumInto(ctx, tmp)
	db.gate.Unlock()
	if err != nil {
		return 0, fmt.Errorf("taking snapshot: %w", err)
	}

	f, err := os.Open(tmp)
	if err != nil {
		return 0, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(w, f)
	if err != nil {
		return n, fmt.Errorf("streaming snapshot: %w", err)
	}
	return n, nil
}

// ImportSnapshot replaces every data table with the contents of the SQLite
// file read from r. The file must pass an integrity check and carry the same
// schema version as the open store. The replacement runs in one transaction
// while writers are held off.
func (db *DB) ImportSnapshot(ctx context.Context, r io.Reader) (*ImportResult, error) {
	tmp := filepath.Join(os.TempDir(), "warehouse-import-"+uuid.NewString()+".db")
	defer os.Remove(tmp)

	if err := writeTemp(tmp, r); err != nil {
		return nil, err
	}

	db.gate.Lock()
	defer db.gate.Unlock()

	if db.IsClosed() {
		return nil, ErrClosed
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "ATTACH DATABASE ? AS incoming", tmp); err != nil {
		return nil, fmt.Errorf("%w: attaching file: %v", ErrIncompatibleSnapshot, err)
	}
	defer func() {
		if _, err := conn.ExecContext(context.Background(), "DETACH DATABASE incoming"); err != nil {
			slog.Warn("detaching imported snapshot", "error", err)
		}
	}()

	if err := checkIntegrity(ctx, conn, "incoming"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompatibleSnapshot, err)
	}

	want, err := schemaVersion(ctx, conn, "main")
	if err != nil {
		return nil, err
	}
	got, err := schemaVersion(ctx, conn, "incoming")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompatibleSnapshot, err)
	}
	if got != want {
		return nil, fmt.Errorf("%w: schema version %d, store is at %d", ErrIncompatibleSnapshot, got, want)
	}

	result := &ImportResult{Rows: make(map[string]int, len(snapshotTables))}

	if db.backupDir != "" {
		backupPath := filepath.Join(db.backupDir,
			fmt.Sprintf("pre-import-%s.db", time.Now().Format("20060102-150405")))
		if _, err := conn.ExecContext(ctx, "VACUUM main INTO ?", backupPath); err != nil {
			return nil, fmt.Errorf("backing up current data: %w", err)
		}
		result.PreviousBackup = backupPath
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for i := len(snapshotTables) - 1; i >= 0; i-- {
		if _, err := tx.ExecContext(ctx, "DELETE FROM main."+snapshotTables[i]); err != nil {
			return nil, fmt.Errorf("clearing %s: %w", snapshotTables[i], err)
		}
	}

	for _, table := range snapshotTables {
		res, err := tx.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO main.%s SELECT * FROM incoming.%s", table, table))
		if err != nil {
			return nil, fmt.Errorf("copying %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		result.Rows[table] = int(n)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing import: %w", err)
	}

	slog.Info("snapshot imported", "rows", result.Rows, "backup", result.PreviousBackup)
	return result, nil
}

func writeTemp(path string, r io.Reader) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("receiving snapshot: %w", err)
	}
	return f.Sync()
}
