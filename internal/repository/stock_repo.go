package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/stockroom/warehouse/internal/models"
)

// StockRepository handles the balance cache.
type StockRepository struct {
	db *sql.DB
}

// NewStockRepository creates a new stock repository.
func NewStockRepository(db *sql.DB) *StockRepository {
	return &StockRepository{db: db}
}

// Get returns the cached balance of itemID, or ErrNotFound when no row exists.
func (r *StockRepository) Get(ctx context.Context, tx *sql.Tx, itemID int64) (*models.Stock, error) {
	var stock models.Stock
	var updatedStr string

	err := getExecer(r.db, tx).QueryRowContext(ctx,
		`SELECT item_id, qty, updated_at FROM stocks WHERE item_id = ?`, itemID,
	).Scan(&stock.ItemID, &stock.Qty, &updatedStr)
	if err != nil {
		return nil, translate(err, "reading stock")
	}
	stock.UpdatedAt = parseTimestamp(updatedStr)
	return &stock, nil
}

// Put writes the balance of itemID, creating the row when absent.
func (r *StockRepository) Put(ctx context.Context, tx *sql.Tx, itemID, qty int64, now time.Time) error {
	_, err := getExecer(r.db, tx).ExecContext(ctx, `
		INSERT INTO stocks (item_id, qty, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (item_id) DO UPDATE SET qty = excluded.qty, updated_at = excluded.updated_at`,
		itemID, qty, timestamp(now),
	)
	if err != nil {
		return fmt.Errorf("writing stock for item %d: %w", itemID, err)
	}
	return nil
}

func lastInDate() *goqu.SelectDataset {
	return dialect.From(goqu.T("stock_moves").As("sm")).
		Select(goqu.MAX(goqu.I("sm.biz_date"))).
		Where(
			goqu.I("sm.item_id").Eq(goqu.I("s.item_id")),
			goqu.I("sm.move_type").Eq(string(models.MoveTypeIn)),
		)
}

func stockRows() *goqu.SelectDataset {
	return dialect.From(goqu.T("stocks").As("s")).Prepared(true).
		Join(goqu.T("items").As("i"), goqu.On(goqu.I("i.id").Eq(goqu.I("s.item_id")))).
		LeftJoin(goqu.T("categories").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("i.category_id")))).
		Select(
			goqu.I("s.item_id"), goqu.I("i.name"), goqu.I("i.spec_default"), goqu.I("i.unit_default"),
			goqu.I("i.category_id"), goqu.I("c.name"), goqu.I("i.min_stock"), goqu.I("i.is_active"),
			goqu.I("s.qty"), lastInDate().As("last_in_date"), goqu.I("s.updated_at"),
		)
}

// List returns balances joined with their items.
func (r *StockRepository) List(ctx context.Context, filter models.StockFilter) ([]models.StockRow, error) {
	ds := stockRows()

	if q := strings.TrimSpace(filter.Q); q != "" {
		switch filter.QField {
		case models.StockQueryName:
			ds = ds.Where(containsLike("i.name", q))
		case models.StockQuerySpec:
			ds = ds.Where(containsLike("i.spec_default", q))
		case models.StockQueryCategory:
			ds = ds.Where(containsLike("c.name", q))
		}
	}
	if filter.QField == models.StockQueryInDate && (filter.DateFrom != "" || filter.DateTo != "") {
		inRange := dialect.From(goqu.T("stock_moves").As("sm")).
			Select(goqu.L("1")).
			Where(
				goqu.I("sm.item_id").Eq(goqu.I("s.item_id")),
				goqu.I("sm.move_type").Eq(string(models.MoveTypeIn)),
			)
		if filter.DateFrom != "" {
			inRange = inRange.Where(goqu.I("sm.biz_date").Gte(filter.DateFrom))
		}
		if filter.DateTo != "" {
			inRange = inRange.Where(goqu.I("sm.biz_date").Lte(filter.DateTo))
		}
		ds = ds.Where(goqu.L("EXISTS ?", inRange))
	}

	dir := filter.SortOrder
	if dir == "" {
		dir = models.SortAsc
	}
	byName := goqu.I("i.name").Asc()
	switch filter.SortBy {
	case models.StockSortCategory:
		ds = ds.Order(orderBy(goqu.I("c.name"), dir), byName)
	case models.StockSortSpec:
		ds = ds.Order(orderBy(goqu.I("i.spec_default"), dir), byName)
	case models.StockSortQty:
		ds = ds.Order(orderBy(goqu.I("s.qty"), dir), byName)
	case models.StockSortLastInDate:
		ds = ds.Order(orderBy(goqu.C("last_in_date"), dir), byName)
	default:
		ds = ds.Order(orderBy(goqu.I("i.name"), dir))
	}

	return r.queryRows(ctx, ds)
}

// GetRow returns one item's balance row.
func (r *StockRepository) GetRow(ctx context.Context, itemID int64) (*models.StockRow, error) {
	rows, err := r.queryRows(ctx, stockRows().Where(goqu.I("s.item_id").Eq(itemID)))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("stock row for item %d: %w", itemID, ErrNotFound)
	}
	return &rows[0], nil
}

// Alerts returns active items below their minimum, largest gap first.
func (r *StockRepository) Alerts(ctx context.Context) ([]models.StockAlert, error) {
	ds := stockRows().
		Where(
			goqu.I("i.is_active").Eq(1),
			goqu.I("i.min_stock").Gt(0),
			goqu.I("s.qty").Lt(goqu.I("i.min_stock")),
		).
		Order(goqu.L("i.min_stock - s.qty").Desc(), goqu.I("i.name").Asc())

	rows, err := r.queryRows(ctx, ds)
	if err != nil {
		return nil, err
	}

	alerts := make([]models.StockAlert, len(rows))
	for i, row := range rows {
		alerts[i] = models.StockAlert{StockRow: row, Gap: row.MinStock - row.Qty}
	}
	return alerts, nil
}

// Discrepancies lists items whose cached balance differs from the sum of
// their ledger entries. A missing balance row counts as zero.
func (r *StockRepository) Discrepancies(ctx context.Context) ([]models.Discrepancy, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT item_id, balance, ledger_sum FROM (
			SELECT i.id AS item_id,
				COALESCE(s.qty, 0) AS balance,
				COALESCE((SELECT SUM(sm.qty_delta) FROM stock_moves sm WHERE sm.item_id = i.id), 0) AS ledger_sum
			FROM items i
			LEFT JOIN stocks s ON s.item_id = i.id
		)
		WHERE balance <> ledger_sum
		ORDER BY item_id`)
	if err != nil {
		return nil, fmt.Errorf("querying discrepancies: %w", err)
	}
	defer rows.Close()

	out := []models.Discrepancy{}
	for rows.Next() {
		var d models.Discrepancy
		if err := rows.Scan(&d.ItemID, &d.Balance, &d.LedgerSum); err != nil {
			return nil, fmt.Errorf("scanning discrepancy: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *StockRepository) queryRows(ctx context.Context, ds *goqu.SelectDataset) ([]models.StockRow, error) {
	query, args, err := toSQL(ds)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying stocks: %w", err)
	}
	defer rows.Close()

	out := []models.StockRow{}
	for rows.Next() {
		var row models.StockRow
		var spec, categoryName, lastIn sql.NullString
		var categoryID sql.NullInt64
		var isActive int
		var updatedStr string

		err := rows.Scan(
			&row.ItemID, &row.ItemName, &spec, &row.Unit,
			&categoryID, &categoryName, &row.MinStock, &isActive,
			&row.Qty, &lastIn, &updatedStr,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning stock row: %w", err)
		}

		row.Spec = spec.String
		row.CategoryID = idPtr(categoryID)
		row.CategoryName = categoryName.String
		row.IsActive = isActive == 1
		row.LastInDate = lastIn.String
		row.UpdatedAt = parseTimestamp(updatedStr)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stocks: %w", err)
	}
	return out, nil
}
