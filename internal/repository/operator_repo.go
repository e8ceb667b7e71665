package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/stockroom/warehouse/internal/models"
)

// OperatorRepository handles operator data access.
type OperatorRepository struct {
	db *sql.DB
}

// NewOperatorRepository creates a new operator repository.
func NewOperatorRepository(db *sql.DB) *OperatorRepository {
	return &OperatorRepository{db: db}
}

// Ensure inserts name unless it already exists.
func (r *OperatorRepository) Ensure(ctx context.Context, tx *sql.Tx, name string, now time.Time) error {
	_, err := getExecer(r.db, tx).ExecContext(ctx,
		`INSERT OR IGNORE INTO operators (name, created_at) VALUES (?, ?)`,
		name, timestamp(now),
	)
	if err != nil {
		return fmt.Errorf("inserting operator: %w", err)
	}
	return nil
}

// List returns all operators ordered by name.
func (r *OperatorRepository) List(ctx context.Context) ([]models.Operator, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM operators ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying operators: %w", err)
	}
	defer rows.Close()

	operators := []models.Operator{}
	for rows.Next() {
		var op models.Operator
		var createdStr string
		if err := rows.Scan(&op.ID, &op.Name, &createdStr); err != nil {
			return nil, fmt.Errorf("scanning operator: %w", err)
		}
		op.CreatedAt = parseTimestamp(createdStr)
		operators = append(operators, op)
	}
	return operators, rows.Err()
}
