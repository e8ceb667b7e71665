// Package services wires the inventory services over one store.
package services

import (
	"github.com/stockroom/warehouse/internal/config"
	"github.com/stockroom/warehouse/internal/database"
	"github.com/stockroom/warehouse/internal/services/documents"
	"github.com/stockroom/warehouse/internal/services/ledger"
	"github.com/stockroom/warehouse/internal/services/masterdata"
	"github.com/stockroom/warehouse/internal/services/reports"
	"github.com/stockroom/warehouse/internal/util"
)

// Services holds every service sharing one store and clock.
type Services struct {
	Master    *masterdata.Service
	Ledger    *ledger.Service
	Documents *documents.Service
	Reports   *reports.Service
}

// New builds the services over db.
func New(db *database.DB, clock util.Clock, limits config.InventoryConfig) *Services {
	ledgerSvc := ledger.NewService(db, clock, limits)
	return &Services{
		Master:    masterdata.NewService(db, clock, limits),
		Ledger:    ledgerSvc,
		Documents: documents.NewService(db, ledgerSvc, clock),
		Reports:   reports.NewService(db, limits),
	}
}
