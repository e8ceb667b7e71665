package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stockroom/warehouse/internal/models"
)

// CategoryRepository handles category data access.
type CategoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new category repository.
func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create inserts a category and sets its ID. A taken name yields ErrDuplicate.
func (r *CategoryRepository) Create(ctx context.Context, tx *sql.Tx, cat *models.Category) error {
	res, err := getExecer(r.db, tx).ExecContext(ctx,
		`INSERT INTO categories (name, created_at) VALUES (?, ?)`,
		cat.Name, timestamp(cat.CreatedAt),
	)
	if err != nil {
		return translate(err, "inserting category")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading category id: %w", err)
	}
	cat.ID = id
	return nil
}

// GetByID retrieves a category by ID.
func (r *CategoryRepository) GetByID(ctx context.Context, tx *sql.Tx, id int64) (*models.Category, error) {
	row := getExecer(r.db, tx).QueryRowContext(ctx,
		`SELECT id, name, created_at FROM categories WHERE id = ?`, id)
	return scanCategory(row)
}

// GetByName retrieves a category by its exact name.
func (r *CategoryRepository) GetByName(ctx context.Context, tx *sql.Tx, name string) (*models.Category, error) {
	row := getExecer(r.db, tx).QueryRowContext(ctx,
		`SELECT id, name, created_at FROM categories WHERE name = ?`, name)
	return scanCategory(row)
}

// List returns all categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM categories ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *cat)
	}
	return categories, rows.Err()
}

func scanCategory(row rowScanner) (*models.Category, error) {
	var cat models.Category
	var createdStr string

	if err := row.Scan(&cat.ID, &cat.Name, &createdStr); err != nil {
		return nil, translate(err, "scanning category")
	}
	cat.CreatedAt = parseTimestamp(createdStr)
	return &cat, nil
}
