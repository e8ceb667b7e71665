// Package masterdata manages items, categories and operators.
package masterdata

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

// Service provides master data operations.
type Service struct {
	db         *database.DB
	items      *repository.ItemRepository
	categories *repository.CategoryRepository
	operators  *repository.OperatorRepository
	clock      util.Clock
	limits     config.InventoryConfig
}

// NewService creates a new master data service.
func NewService(db *database.DB, clock util.Clock, limits config.InventoryConfig) *Service {
	return &Service{
		db:         db,
		items:      repository.NewItemRepository(db.DB),
		categories: repository.NewCategoryRepository(db.DB),
		operators:  repository.NewOperatorRepository(db.DB),
		clock:      clock,
		limits:     limits,
	}
}

// ============================================================================
// ITEMS
// ============================================================================

// CreateItem creates an item and its zero balance.
func (s *Service) CreateItem(ctx context.Context, input CreateItemInput) (*models.Item, error) {
	name := strings.TrimSpace(input.Name)
	unit := strings.TrimSpace(input.UnitDefault)

	if name == "" {
		return nil, apperr.Validation("item name is required")
	}
	if unit == "" {
		return nil, apperr.Validation("unit is required")
	}
	if input.MinStock < 0 {
		return nil, apperr.Validation("min_stock must not be negative")
	}

	now := s.clock.Now()
	item := &models.Item{
		Name:        name,
		CategoryID:  input.CategoryID,
		SpecDefault: strings.TrimSpace(input.SpecDefault),
		UnitDefault: unit,
		MinStock:    input.MinStock,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := s.checkCategory(ctx, tx, item.CategoryID); err != nil {
			return err
		}
		if _, err := s.items.GetByName(ctx, tx, name); err == nil {
			return apperr.DuplicateName(name)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		if err := s.items.Create(ctx, tx, item); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperr.DuplicateName(name)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	slog.Debug("item created", "item_id", item.ID, "name", item.Name)
	return item, nil
}

// UpdateItem applies a partial update and returns the stored item.
func (s *Service) UpdateItem(ctx context.Context, id int64, upd models.ItemUpdate) (*models.Item, error) {
	if upd.Name.Set {
		upd.Name.Value = strings.TrimSpace(upd.Name.Value)
		if upd.Name.Value == "" {
			return nil, apperr.Validation("item name must not be empty")
		}
	}
	if upd.UnitDefault.Set {
		upd.UnitDefault.Value = strings.TrimSpace(upd.UnitDefault.Value)
		if upd.UnitDefault.Value == "" {
			return nil, apperr.Validation("unit must not be empty")
		}
	}
	if upd.MinStock.Set && upd.MinStock.Value < 0 {
		return nil, apperr.Validation("min_stock must not be negative")
	}

	var item *models.Item
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := s.items.GetByID(ctx, tx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.NotFound("item", id)
			}
			return err
		}
		if upd.CategoryID.Set {
			if err := s.checkCategory(ctx, tx, upd.CategoryID.Value); err != nil {
				return err
			}
		}

		if err := s.items.Update(ctx, tx, id, upd, s.clock.Now()); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperr.DuplicateName(upd.Name.Value)
			}
			return err
		}

		var err error
		item, err = s.items.GetByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("updating item %d: %w", id, err)
	}
	return item, nil
}

// GetItem returns an item or a NotFound error.
func (s *Service) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	item, err := s.items.GetByID(ctx, nil, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("item", id)
	}
	return item, err
}

// ListItems returns all items, active first, or only active items.
func (s *Service) ListItems(ctx context.Context, activeOnly bool) ([]models.Item, error) {
	return s.items.List(ctx, activeOnly)
}

// SearchItems matches query against item names and specs. A blank query
// returns no rows rather than the whole table.
func (s *Service) SearchItems(ctx context.Context, query string) ([]models.Item, error) {
	if strings.TrimSpace(query) == "" {
		return []models.Item{}, nil
	}
	return s.items.Search(ctx, query, s.limits.SearchLimit)
}

func (s *Service) checkCategory(ctx context.Context, tx *sql.Tx, id *int64) error {
	if id == nil {
		return nil
	}
	if _, err := s.categories.GetByID(ctx, tx, *id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.Validation("category %d does not exist", *id)
		}
		return err
	}
	return nil
}

// ============================================================================
// CATEGORIES
// ============================================================================

// CreateCategory creates a category. A taken name fails with NameExists
// carrying the existing category's ID.
func (s *Service) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("category name is required")
	}

	cat := &models.Category{Name: name, CreatedAt: s.clock.Now()}
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		existing, err := s.categories.GetByName(ctx, tx, name)
		if err == nil {
			return apperr.NameExists(name, existing.ID)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return s.categories.Create(ctx, tx, cat)
	})
	if err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}
	return cat, nil
}

// ListCategories returns all categories by name.
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.categories.List(ctx)
}

// ============================================================================
// OPERATORS
// ============================================================================

// CreateOperator records an operator name. Repeating a name is not an error.
func (s *Service) CreateOperator(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Validation("operator name is required")
	}
	if err := s.operators.Ensure(ctx, nil, name, s.clock.Now()); err != nil {
		return fmt.Errorf("creating operator: %w", err)
	}
	return nil
}

// ListOperators returns all operators by name.
func (s *Service) ListOperators(ctx context.Context) ([]models.Operator, error) {
	return s.operators.List(ctx)
}
