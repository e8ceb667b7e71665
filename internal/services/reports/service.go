// Package reports aggregates the stock ledger for the reporting screens.
package reports

import (
	"context"
	"fmt"
	"strings"

	"github.com/stockroom/warehouse/internal/apperr"
	"github.com/stockroom/warehouse/internal/config"
	"github.com/stockroom/warehouse/internal/database"
	"github.com/stockroom/warehouse/internal/models"
	"github.com/stockroom/warehouse/internal/repository"
	"github.com/stockroom/warehouse/internal/util"
)

// Service provides ledger reports.
type Service struct {
	reports *repository.ReportRepository
	moves   *repository.MoveRepository
	limits  config.InventoryConfig
}

// NewService creates a new report service.
func NewService(db *database.DB, limits config.InventoryConfig) *Service {
	return &Service{
		reports: repository.NewReportRepository(db.DB),
		moves:   repository.NewMoveRepository(db.DB),
		limits:  limits,
	}
}

// Range bounds a report. Start and End are inclusive business dates; either
// may be empty.
type Range struct {
	Start    string
	End      string
	ItemID   int64
	Operator string
}

func (r Range) validate() error {
	if r.Start != "" && !util.ValidDate(r.Start) {
		return apperr.Validation("start must be YYYY-MM-DD")
	}
	if r.End != "" && !util.ValidDate(r.End) {
		return apperr.Validation("end must be YYYY-MM-DD")
	}
	if r.Start != "" && r.End != "" && r.Start > r.End {
		return apperr.Validation("start %s is after end %s", r.Start, r.End)
	}
	return nil
}

func (r Range) repo() repository.ReportRange {
	return repository.ReportRange{
		Start:    r.Start,
		End:      r.End,
		ItemID:   r.ItemID,
		Operator: strings.TrimSpace(r.Operator),
	}
}

// Daily returns inbound and outbound totals per business date, oldest first.
func (s *Service) Daily(ctx context.Context, r Range) ([]models.DailyTotal, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	totals, err := s.reports.DailyTotals(ctx, r.repo())
	if err != nil {
		return nil, fmt.Errorf("daily report: %w", err)
	}
	return totals, nil
}

// TopItems ranks items by quantity moved in the given direction. A
// non-positive limit uses the configured default.
func (s *Service) TopItems(ctx context.Context, r Range, moveType models.MoveType, limit int) ([]models.ItemTotal, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	if moveType == "" {
		moveType = models.MoveTypeOut
	}
	if moveType != models.MoveTypeIn && moveType != models.MoveTypeOut {
		return nil, apperr.Validation("type must be in or out, not %q", moveType)
	}
	if limit <= 0 {
		limit = s.limits.TopItemsLimit
	}

	totals, err := s.reports.TopItems(ctx, r.repo(), moveType, limit)
	if err != nil {
		return nil, fmt.Errorf("top items report: %w", err)
	}
	return totals, nil
}

// Movements returns every ledger entry in range, newest first.
func (s *Service) Movements(ctx context.Context, r Range) ([]models.StockMove, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	moves, err := s.moves.List(ctx, models.MoveFilter{
		ItemID:   r.ItemID,
		Start:    r.Start,
		End:      r.End,
		Operator: strings.TrimSpace(r.Operator),
	})
	if err != nil {
		return nil, fmt.Errorf("movement report: %w", err)
	}
	return moves, nil
}
