package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/stockroom/warehouse/internal/models"
)

// ItemRepository handles item data access.
type ItemRepository struct {
	db *sql.DB
}

// NewItemRepository creates a new item repository.
func NewItemRepository(db *sql.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

const itemColumns = `
	i.id, i.name, i.category_id, i.spec_default, i.unit_default,
	i.min_stock, i.is_active, i.created_at, i.updated_at, c.name`

// Create inserts an item together with its zero-quantity stock row.
func (r *ItemRepository) Create(ctx context.Context, tx *sql.Tx, item *models.Item) error {
	execer := getExecer(r.db, tx)

	res, err := execer.ExecContext(ctx, `
		INSERT INTO items (
			name, category_id, spec_default, unit_default,
			min_stock, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Name,
		nullableID(item.CategoryID),
		nullableString(item.SpecDefault),
		item.UnitDefault,
		item.MinStock,
		boolToInt(item.IsActive),
		timestamp(item.CreatedAt),
		timestamp(item.UpdatedAt),
	)
	if err != nil {
		return translate(err, "inserting item")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading item id: %w", err)
	}
	item.ID = id

	_, err = execer.ExecContext(ctx,
		`INSERT OR IGNORE INTO stocks (item_id, qty, updated_at) VALUES (?, 0, ?)`,
		id, timestamp(item.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("initialising stock row: %w", err)
	}
	return nil
}

// GetByID retrieves an item with its category name.
func (r *ItemRepository) GetByID(ctx context.Context, tx *sql.Tx, id int64) (*models.Item, error) {
	query := `SELECT ` + itemColumns + `
		FROM items i
		LEFT JOIN categories c ON c.id = i.category_id
		WHERE i.id = ?`

	return scanItem(getExecer(r.db, tx).QueryRowContext(ctx, query, id))
}

// GetByName retrieves an item by its exact name.
func (r *ItemRepository) GetByName(ctx context.Context, tx *sql.Tx, name string) (*models.Item, error) {
	query := `SELECT ` + itemColumns + `
		FROM items i
		LEFT JOIN categories c ON c.id = i.category_id
		WHERE i.name = ?`

	return scanItem(getExecer(r.db, tx).QueryRowContext(ctx, query, name))
}

// Update applies the set fields of upd. Unset fields keep their values.
func (r *ItemRepository) Update(ctx context.Context, tx *sql.Tx, id int64, upd models.ItemUpdate, now time.Time) error {
	if upd.Empty() {
		return nil
	}

	record := goqu.Record{"updated_at": timestamp(now)}
	if upd.Name.Set {
		record["name"] = upd.Name.Value
	}
	if upd.CategoryID.Set {
		record["category_id"] = nullableID(upd.CategoryID.Value)
	}
	if upd.SpecDefault.Set {
		record["spec_default"] = nullableString(upd.SpecDefault.Value)
	}
	if upd.UnitDefault.Set {
		record["unit_default"] = upd.UnitDefault.Value
	}
	if upd.MinStock.Set {
		record["min_stock"] = upd.MinStock.Value
	}
	if upd.IsActive.Set {
		record["is_active"] = boolToInt(upd.IsActive.Value)
	}

	query, args, err := toSQL(dialect.Update("items").Prepared(true).
		Set(record).
		Where(goqu.C("id").Eq(id)))
	if err != nil {
		return err
	}

	res, err := getExecer(r.db, tx).ExecContext(ctx, query, args...)
	if err != nil {
		return translate(err, "updating item")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("updating item %d: %w", id, ErrNotFound)
	}
	return nil
}

// List returns items. With activeOnly it returns active items by name;
// otherwise active items come first.
func (r *ItemRepository) List(ctx context.Context, activeOnly bool) ([]models.Item, error) {
	query := `SELECT ` + itemColumns + `
		FROM items i
		LEFT JOIN categories c ON c.id = i.category_id`
	if activeOnly {
		query += ` WHERE i.is_active = 1 ORDER BY i.name`
	} else {
		query += ` ORDER BY i.is_active DESC, i.name`
	}

	return r.queryItems(ctx, query)
}

// Search matches q as a substring of name or default spec.
func (r *ItemRepository) Search(ctx context.Context, q string, limit int) ([]models.Item, error) {
	query := `SELECT ` + itemColumns + `
		FROM items i
		LEFT JOIN categories c ON c.id = i.category_id
		WHERE i.name LIKE ? ESCAPE '\' OR i.spec_default LIKE ? ESCAPE '\'
		ORDER BY i.is_active DESC, i.name
		LIMIT ?`

	pattern := likePattern(q)
	return r.queryItems(ctx, query, pattern, pattern, limit)
}

func (r *ItemRepository) queryItems(ctx context.Context, query string, args ...any) ([]models.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}
	return items, nil
}

func scanItem(row rowScanner) (*models.Item, error) {
	var item models.Item
	var categoryID sql.NullInt64
	var spec, categoryName sql.NullString
	var isActive int
	var createdStr, updatedStr string

	err := row.Scan(
		&item.ID, &item.Name, &categoryID, &spec, &item.UnitDefault,
		&item.MinStock, &isActive, &createdStr, &updatedStr, &categoryName,
	)
	if err != nil {
		return nil, translate(err, "scanning item")
	}

	item.CategoryID = idPtr(categoryID)
	item.SpecDefault = spec.String
	item.IsActive = isActive == 1
	item.CreatedAt = parseTimestamp(createdStr)
	item.UpdatedAt = parseTimestamp(updatedStr)
	item.CategoryName = categoryName.String
	return &item, nil
}
