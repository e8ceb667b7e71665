package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/stockroom/warehouse/internal/models"
)

// ReportRepository aggregates the stock ledger.
type ReportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new report repository.
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// ReportRange bounds a report by business date. Empty bounds are open.
type ReportRange struct {
	Start    string
	End      string
	ItemID   int64
	Operator string
}

func (rr ReportRange) apply(ds *goqu.SelectDataset) *goqu.SelectDataset {
	if rr.Start != "" {
		ds = ds.Where(goqu.I("sm.biz_date").Gte(rr.Start))
	}
	if rr.End != "" {
		ds = ds.Where(goqu.I("sm.biz_date").Lte(rr.End))
	}
	if rr.ItemID > 0 {
		ds = ds.Where(goqu.I("sm.item_id").Eq(rr.ItemID))
	}
	if rr.Operator != "" {
		ds = ds.Where(goqu.I("sm.operator").Eq(rr.Operator))
	}
	return ds
}

// DailyTotals returns inbound and outbound quantity per business date.
// Adjustments are not counted.
func (r *ReportRepository) DailyTotals(ctx context.Context, rr ReportRange) ([]models.DailyTotal, error) {
	inQty := goqu.SUM(goqu.Case().
		When(goqu.I("sm.move_type").Eq(string(models.MoveTypeIn)), goqu.I("sm.qty_delta")).
		Else(0))
	outQty := goqu.SUM(goqu.Case().
		When(goqu.I("sm.move_type").Eq(string(models.MoveTypeOut)), goqu.L("-sm.qty_delta")).
		Else(0))

	ds := dialect.From(goqu.T("stock_moves").As("sm")).Prepared(true).
		Select(goqu.I("sm.biz_date"), goqu.COALESCE(inQty, 0), goqu.COALESCE(outQty, 0)).
		GroupBy(goqu.I("sm.biz_date")).
		Order(goqu.I("sm.biz_date").Asc())
	ds = rr.apply(ds)

	query, args, err := toSQL(ds)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying daily totals: %w", err)
	}
	defer rows.Close()

	totals := []models.DailyTotal{}
	for rows.Next() {
		var t models.DailyTotal
		if err := rows.Scan(&t.Date, &t.InQty, &t.OutQty); err != nil {
			return nil, fmt.Errorf("scanning daily total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// TopItems returns the items with the most quantity moved in one direction.
func (r *ReportRepository) TopItems(ctx context.Context, rr ReportRange, moveType models.MoveType, limit int) ([]models.ItemTotal, error) {
	total := goqu.SUM(goqu.L("ABS(sm.qty_delta)"))

	ds := dialect.From(goqu.T("stock_moves").As("sm")).Prepared(true).
		Join(goqu.T("items").As("i"), goqu.On(goqu.I("i.id").Eq(goqu.I("sm.item_id")))).
		Select(goqu.I("sm.item_id"), goqu.I("i.name"), goqu.I("i.unit_default"), total.As("total_qty")).
		Where(goqu.I("sm.move_type").Eq(string(moveType))).
		GroupBy(goqu.I("sm.item_id"), goqu.I("i.name"), goqu.I("i.unit_default")).
		Order(goqu.C("total_qty").Desc(), goqu.I("i.name").Asc())
	ds = rr.apply(ds)
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	query, args, err := toSQL(ds)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying top items: %w", err)
	}
	defer rows.Close()

	totals := []models.ItemTotal{}
	for rows.Next() {
		var t models.ItemTotal
		if err := rows.Scan(&t.ItemID, &t.ItemName, &t.Unit, &t.TotalQty); err != nil {
			return nil, fmt.Errorf("scanning item total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
