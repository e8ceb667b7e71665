package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stockroom/warehouse/internal/config"
	_ "modernc.org/sqlite"
)

// NewInMemory creates an in-memory database for tests and tools.
// Foreign keys are enabled; migrations are not run.
func NewInMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	// The in-memory database lives and dies with its connection.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return &DB{
		DB:        sqlDB,
		path:      ":memory:",
		config:    &config.DatabaseConfig{},
		closeChan: make(chan struct{}),
	}, nil
}

// NewMigratedInMemory returns an in-memory database with every migration applied.
func NewMigratedInMemory(ctx context.Context) (*DB, error) {
	db, err := NewInMemory()
	if err != nil {
		return nil, err
	}

	m, err := NewMigrator(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	if _, err := m.MigrateUp(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
