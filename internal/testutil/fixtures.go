package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockroom/warehouse/internal/models"
)

// Epoch is the fixed instant fixtures are stamped with.
var Epoch = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

// FixtureCategory creates a test category with a unique name.
func FixtureCategory(overrides ...func(*models.Category)) *models.Category {
	cat := &models.Category{
		Name:      "Category " + uuid.NewString()[:8],
		CreatedAt: Epoch,
	}

	for _, override := range overrides {
		override(cat)
	}

	return cat
}

// FixtureItem creates an active test item with a unique name.
func FixtureItem(overrides ...func(*models.Item)) *models.Item {
	item := &models.Item{
		Name:        "Item " + uuid.NewString()[:8],
		SpecDefault: "M8x40",
		UnitDefault: "pcs",
		IsActive:    true,
		CreatedAt:   Epoch,
		UpdatedAt:   Epoch,
	}

	for _, override := range overrides {
		override(item)
	}

	return item
}

// FixtureDoc creates a document header with a unique number.
func FixtureDoc(docType models.DocType, overrides ...func(*models.Doc)) *models.Doc {
	doc := &models.Doc{
		DocType:   docType,
		DocNo:     "DOC-" + uuid.NewString()[:8],
		BizDate:   "2024-01-15",
		Operator:  "alice",
		CreatedAt: Epoch,
		UpdatedAt: Epoch,
	}
	if docType == models.DocTypeClaim {
		doc.Status = models.ClaimDraft
	}

	for _, override := range overrides {
		override(doc)
	}

	return doc
}

// FixtureMove creates a ledger entry for itemID.
func FixtureMove(itemID, delta int64, overrides ...func(*models.StockMove)) *models.StockMove {
	moveType := models.MoveTypeIn
	if delta < 0 {
		moveType = models.MoveTypeOut
	}

	move := &models.StockMove{
		MoveType:  moveType,
		BizDate:   "2024-01-15",
		ItemID:    itemID,
		QtyDelta:  delta,
		Operator:  "alice",
		CreatedAt: Epoch,
	}

	for _, override := range overrides {
		override(move)
	}

	return move
}
