// Package ledger maintains the stock ledger and the balance cache derived
// from it. A balance only changes together with the ledger entry that
// explains it, and never drops below zero.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stockroom/warehouse/internal/apperr"
	"github.com/stockroom/warehouse/internal/config"
	"github.com/stockroom/warehouse/internal/database"
	"github.com/stockroom/warehouse/internal/models"
	"github.com/stockroom/warehouse/internal/repository"
	"github.com/stockroom/warehouse/internal/util"
)

// Service provides ledger and balance operations.
type Service struct {
	db     *database.DB
	moves  *repository.MoveRepository
	stocks *repository.StockRepository
	items  *repository.ItemRepository
	clock  util.Clock
	limits config.InventoryConfig
}

// NewService creates a new ledger service.
func NewService(db *database.DB, clock util.Clock, limits config.InventoryConfig) *Service {
	return &Service{
		db:     db,
		moves:  repository.NewMoveRepository(db.DB),
		stocks: repository.NewStockRepository(db.DB),
		items:  repository.NewItemRepository(db.DB),
		clock:  clock,
		limits: limits,
	}
}

// ============================================================================
// POSTING
// ============================================================================

// RecordMove appends move to the ledger inside tx. CreatedAt is stamped when zero.
func (s *Service) RecordMove(ctx context.Context, tx *sql.Tx, move *models.StockMove) error {
	if move.CreatedAt.IsZero() {
		move.CreatedAt = s.clock.Now()
	}
	return s.moves.Create(ctx, tx, move)
}

// ApplyBalanceDelta adds delta to the cached balance of itemID inside tx and
// returns the new quantity. A missing balance row counts as zero. The caller
// must roll back tx on error.
func (s *Service) ApplyBalanceDelta(ctx context.Context, tx *sql.Tx, itemID, delta int64) (int64, error) {
	var current int64
	stock, err := s.stocks.Get(ctx, tx, itemID)
	switch {
	case err == nil:
		current = stock.Qty
	case errors.Is(err, repository.ErrNotFound):
	default:
		return 0, err
	}

	next := current + delta
	if next < 0 {
		return 0, apperr.InsufficientStock(itemID, current, delta)
	}

	if err := s.stocks.Put(ctx, tx, itemID, next, s.clock.Now()); err != nil {
		return 0, err
	}
	return next, nil
}

// Post records move and applies its delta in one step.
func (s *Service) Post(ctx context.Context, tx *sql.Tx, move *models.StockMove) error {
	if err := s.RecordMove(ctx, tx, move); err != nil {
		return err
	}
	_, err := s.ApplyBalanceDelta(ctx, tx, move.ItemID, move.QtyDelta)
	return err
}

// AdjustStock books a manual correction as an adjust move.
func (s *Service) AdjustStock(ctx context.Context, input AdjustInput) (*models.StockMove, error) {
	if input.Delta == 0 {
		return nil, apperr.Validation("adjustment delta must not be zero")
	}
	if !util.ValidDate(input.BizDate) {
		return nil, apperr.Validation("biz_date must be YYYY-MM-DD")
	}

	move := &models.StockMove{
		MoveType: models.MoveTypeAdjust,
		BizDate:  input.BizDate,
		ItemID:   input.ItemID,
		QtyDelta: input.Delta,
		Operator: strings.TrimSpace(input.Operator),
		Remark:   input.Remark,
	}

	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := s.items.GetByID(ctx, tx, input.ItemID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.ItemNotFound(input.ItemID)
			}
			return err
		}
		return s.Post(ctx, tx, move)
	})
	if err != nil {
		slog.Warn("stock adjustment rejected",
			"item_id", input.ItemID, "delta", input.Delta, "kind", apperr.KindOf(err))
		return nil, fmt.Errorf("adjusting stock: %w", err)
	}

	slog.Info("stock adjusted", "item_id", input.ItemID, "delta", input.Delta, "move_id", move.ID)
	return move, nil
}

// ============================================================================
// READS
// ============================================================================

// GetBalance returns the balance of an existing item.
func (s *Service) GetBalance(ctx context.Context, itemID int64) (*models.Stock, error) {
	stock, err := s.stocks.Get(ctx, nil, itemID)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if _, err := s.items.GetByID(ctx, nil, itemID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("item", itemID)
		}
		return nil, err
	}
	return &models.Stock{ItemID: itemID}, nil
}

// ListBalances returns balances joined with item display fields.
func (s *Service) ListBalances(ctx context.Context, filter models.StockFilter) ([]models.StockRow, error) {
	return s.stocks.List(ctx, filter)
}

// Alerts returns active items below their minimum stock, largest gap first.
func (s *Service) Alerts(ctx context.Context) ([]models.StockAlert, error) {
	return s.stocks.Alerts(ctx)
}

// StockMoves lists ledger entries newest first. A non-positive limit uses
// the configured item history limit.
func (s *Service) StockMoves(ctx context.Context, filter models.MoveFilter) ([]models.StockMove, error) {
	filter.Limit = s.clampLimit(filter.Limit, s.limits.ItemMovesLimit)
	return s.moves.List(ctx, filter)
}

// RecentMoves returns the newest ledger entries across all items.
func (s *Service) RecentMoves(ctx context.Context, limit int) ([]models.StockMove, error) {
	return s.moves.List(ctx, models.MoveFilter{Limit: s.clampLimit(limit, s.limits.RecentMovesLimit)})
}

// ItemHistory returns one item's ledger entries newest first, with document numbers.
func (s *Service) ItemHistory(ctx context.Context, itemID int64, limit int) ([]models.StockMove, error) {
	return s.StockMoves(ctx, models.MoveFilter{ItemID: itemID, Limit: limit})
}

// ItemDetail summarises one item's position and its outbound history.
func (s *Service) ItemDetail(ctx context.Context, itemID int64) (*models.ItemDetail, error) {
	item, err := s.items.GetByID(ctx, nil, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("item", itemID)
		}
		return nil, err
	}

	stock, err := s.GetBalance(ctx, itemID)
	if err != nil {
		return nil, err
	}

	lastIn, err := s.moves.LastInboundDate(ctx, itemID)
	if err != nil {
		return nil, err
	}

	outbounds, err := s.moves.List(ctx, models.MoveFilter{
		ItemID:   itemID,
		MoveType: models.MoveTypeOut,
		Limit:    s.limits.ItemMovesLimit,
	})
	if err != nil {
		return nil, err
	}

	return &models.ItemDetail{
		Item:            *item,
		Qty:             stock.Qty,
		LastInboundDate: lastIn,
		Outbounds:       outbounds,
	}, nil
}

// Reconcile lists items whose balance disagrees with their ledger. A healthy
// store returns an empty slice.
func (s *Service) Reconcile(ctx context.Context) ([]models.Discrepancy, error) {
	diffs, err := s.stocks.Discrepancies(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconciling balances: %w", err)
	}
	if len(diffs) > 0 {
		slog.Warn("balance and ledger disagree", "items", len(diffs))
	}
	return diffs, nil
}

func (s *Service) clampLimit(limit, def int) int {
	if limit <= 0 {
		limit = def
	}
	if limit > config.MaxItemMovesLimit {
		limit = config.MaxItemMovesLimit
	}
	return limit
}
