package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/stockroom/warehouse/internal/models"
)

// MoveRepository handles the append-only stock ledger.
type MoveRepository struct {
	db *sql.DB
}

// NewMoveRepository creates a new move repository.
func NewMoveRepository(db *sql.DB) *MoveRepository {
	return &MoveRepository{db: db}
}

// Create appends a ledger entry and sets its ID.
func (r *MoveRepository) Create(ctx context.Context, tx *sql.Tx, move *models.StockMove) error {
	res, err := getExecer(r.db, tx).ExecContext(ctx, `
		INSERT INTO stock_moves (
			move_type, biz_date, item_id, qty_delta, doc_id, operator, remark, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(move.MoveType),
		move.BizDate,
		move.ItemID,
		move.QtyDelta,
		nullableID(move.DocID),
		nullableString(move.Operator),
		nullableString(move.Remark),
		timestamp(move.CreatedAt),
	)
	if err != nil {
		return translate(err, "inserting stock move")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading stock move id: %w", err)
	}
	move.ID = id
	return nil
}

// List returns ledger entries newest first, joined with item and document number.
func (r *MoveRepository) List(ctx context.Context, filter models.MoveFilter) ([]models.StockMove, error) {
	ds := dialect.From(goqu.T("stock_moves").As("sm")).Prepared(true).
		Join(goqu.T("items").As("i"), goqu.On(goqu.I("i.id").Eq(goqu.I("sm.item_id")))).
		LeftJoin(goqu.T("docs").As("d"), goqu.On(goqu.I("d.id").Eq(goqu.I("sm.doc_id")))).
		Select(
			goqu.I("sm.id"), goqu.I("sm.move_type"), goqu.I("sm.biz_date"), goqu.I("sm.item_id"),
			goqu.I("sm.qty_delta"), goqu.I("sm.doc_id"), goqu.I("sm.operator"), goqu.I("sm.remark"),
			goqu.I("sm.created_at"), goqu.I("i.name"), goqu.I("i.unit_default"), goqu.I("d.doc_no"),
		)

	if filter.ItemID > 0 {
		ds = ds.Where(goqu.I("sm.item_id").Eq(filter.ItemID))
	}
	if filter.Start != "" {
		ds = ds.Where(goqu.I("sm.biz_date").Gte(filter.Start))
	}
	if filter.End != "" {
		ds = ds.Where(goqu.I("sm.biz_date").Lte(filter.End))
	}
	if filter.Operator != "" {
		ds = ds.Where(goqu.I("sm.operator").Eq(filter.Operator))
	}
	if filter.MoveType != "" {
		ds = ds.Where(goqu.I("sm.move_type").Eq(string(filter.MoveType)))
	}

	ds = ds.Order(goqu.I("sm.biz_date").Desc(), goqu.I("sm.created_at").Desc(), goqu.I("sm.id").Desc())
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	query, args, err := toSQL(ds)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying stock moves: %w", err)
	}
	defer rows.Close()

	moves := []models.StockMove{}
	for rows.Next() {
		var m models.StockMove
		var moveType, createdStr string
		var docID sql.NullInt64
		var operator, remark, docNo sql.NullString

		err := rows.Scan(
			&m.ID, &moveType, &m.BizDate, &m.ItemID,
			&m.QtyDelta, &docID, &operator, &remark,
			&createdStr, &m.ItemName, &m.Unit, &docNo,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning stock move: %w", err)
		}

		m.MoveType = models.MoveType(moveType)
		m.DocID = idPtr(docID)
		m.Operator = operator.String
		m.Remark = remark.String
		m.CreatedAt = parseTimestamp(createdStr)
		m.DocNo = docNo.String
		moves = append(moves, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stock moves: %w", err)
	}
	return moves, nil
}

// LastInboundDate returns the latest business date itemID was received, or "".
func (r *MoveRepository) LastInboundDate(ctx context.Context, itemID int64) (string, error) {
	var date sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(biz_date) FROM stock_moves WHERE item_id = ? AND move_type = 'in'`, itemID,
	).Scan(&date)
	if err != nil {
		return "", fmt.Errorf("reading last inbound date: %w", err)
	}
	return date.String, nil
}
