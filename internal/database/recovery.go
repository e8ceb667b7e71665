package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// RecoveryResult indicates the outcome of a recovery attempt.
type RecoveryResult int

const (
	// RecoverySuccess means the database was healthy or recovered in place.
	RecoverySuccess RecoveryResult = iota
	// RecoveryFromBackup means the database was restored from a backup.
	RecoveryFromBackup
	// RecoveryFailed means all recovery attempts failed.
	RecoveryFailed
)

func (r RecoveryResult) String() string {
	switch r {
	case RecoverySuccess:
		return "success"
	case RecoveryFromBackup:
		return "restored_from_backup"
	case RecoveryFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RecoveryReport describes what AttemptRecovery did.
type RecoveryReport struct {
	Result       RecoveryResult
	DatabasePath string
	BackupUsed   string
	WALRecovered bool
	Steps        []RecoveryStep
}

// RecoveryStep is a single phase of a recovery attempt.
type RecoveryStep struct {
	Name      string
	Succeeded bool
	Message   string
	Duration  time.Duration
}

// AttemptRecovery checks the database file before it is opened for use.
// Phases run in order until one leaves a healthy file:
// integrity check, WAL checkpoint replay, restore of the newest good backup.
func AttemptRecovery(dbPath string, backupDir string) (*RecoveryReport, error) {
	report := &RecoveryReport{DatabasePath: dbPath}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		report.Result = RecoverySuccess
		report.Steps = append(report.Steps, RecoveryStep{
			Name:      "check_exists",
			Succeeded: true,
			Message:   "database does not exist (first run)",
		})
		return report, nil
	}

	step := runRecoveryStep("integrity_check", func() (string, error) {
		return checkFileIntegrity(dbPath)
	})
	report.Steps = append(report.Steps, step)
	if step.Succeeded {
		report.Result = RecoverySuccess
		return report, nil
	}

	slog.Warn("database integrity check failed", "path", dbPath, "error", step.Message)

	if _, err := os.Stat(dbPath + "-wal"); err == nil {
		step = runRecoveryStep("wal_recovery", func() (string, error) {
			if _, err := replayWAL(dbPath); err != nil {
				return "", err
			}
			return checkFileIntegrity(dbPath)
		})
		report.Steps = append(report.Steps, step)

		if step.Succeeded {
			report.Result = RecoverySuccess
			report.WALRecovered = true
			slog.Info("database recovered via WAL replay", "path", dbPath)
			return report, nil
		}
	}

	if backupDir != "" {
		step = runRecoveryStep("backup_restoration", func() (string, error) {
			return restoreFromBackup(dbPath, backupDir)
		})
		report.Steps = append(report.Steps, step)

		if step.Succeeded {
			report.Result = RecoveryFromBackup
			report.BackupUsed = step.Message
			return report, nil
		}
	}

	report.Result = RecoveryFailed
	return report, errors.New("all recovery attempts failed")
}

func runRecoveryStep(name string, fn func() (string, error)) RecoveryStep {
	start := time.Now()
	msg, err := fn()

	step := RecoveryStep{Name: name, Duration: time.Since(start), Succeeded: err == nil, Message: msg}
	if err != nil {
		step.Message = err.Error()
	}
	return step
}

// checkFileIntegrity opens path read-only and runs an integrity check.
func checkFileIntegrity(path string) (string, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return "", fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := checkIntegrity(ctx, db, "main"); err != nil {
		return "", err
	}
	return "ok", nil
}

func replayWAL(dbPath string) (string, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_txlock=immediate", dbPath))
	if err != nil {
		return "", fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA wal_checkpoint(RESTART)"); err != nil {
		return "", fmt.Errorf("WAL checkpoint: %w", err)
	}

	return "WAL checkpoint complete", nil
}

// restoreFromBackup replaces dbPath with the newest backup that passes an
// integrity check. The damaged file is kept beside it with a .corrupted suffix.
func restoreFromBackup(dbPath string, backupDir string) (string, error) {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		return "", fmt.Errorf("reading backup directory: %w", err)
	}

	type backupFile struct {
		path    string
		modTime time.Time
	}

	var backups []backupFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backupFile{
			path:    filepath.Join(backupDir, entry.Name()),
			modTime: info.ModTime(),
		})
	}

	if len(backups) == 0 {
		return "", errors.New("no backup files found")
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].modTime.After(backups[j].modTime)
	})

	for _, backup := range backups {
		if _, err := checkFileIntegrity(backup.path); err != nil {
			slog.Debug("backup failed integrity check", "path", backup.path, "error", err)
			continue
		}

		corruptedPath := dbPath + ".corrupted." + time.Now().Format("20060102-150405")
		if err := moveFile(dbPath, corruptedPath); err != nil {
			slog.Warn("failed to preserve corrupted database", "path", dbPath, "error", err)
		}

		os.Remove(dbPath + "-wal")
		os.Remove(dbPath + "-shm")

		if err := copyFile(backup.path, dbPath); err != nil {
			return "", fmt.Errorf("copying backup: %w", err)
		}

		return backup.path, nil
	}

	return "", errors.New("no valid backup found")
}

func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}

	return dstFile.Sync()
}
