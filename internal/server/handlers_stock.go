package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stockroom/warehouse/internal/apperr"
	"github.com/stockroom/warehouse/internal/export"
	"github.com/stockroom/warehouse/internal/models"
	"github.com/stockroom/warehouse/internal/services/ledger"
)

func (s *Server) listStocks(c *gin.Context) {
	var q stocksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, bindError(err))
		return
	}

	rows, err := s.svc.Ledger.ListBalances(c.Request.Context(), q.filter())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) stockAlerts(c *gin.Context) {
	alerts, err := s.svc.Ledger.Alerts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (s *Server) itemDetail(c *gin.Context) {
	var q itemDetailQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, bindError(err))
		return
	}

	detail, err := s.svc.Ledger.ItemDetail(c.Request.Context(), q.ItemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// exportStocks streams the filtered inventory as a workbook.
func (s *Server) exportStocks(c *gin.Context) {
	var q stocksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, bindError(err))
		return
	}

	rows, err := s.svc.Ledger.ListBalances(c.Request.Context(), q.filter())
	if err != nil {
		respondError(c, err)
		return
	}

	f, filename, err := export.InventoryWorkbook(rows, s.clock.Now())
	if err != nil {
		respondError(c, apperr.IO("building workbook", err))
		return
	}
	defer f.Close()

	attachment(c, export.ContentType, filename)
	if err := f.Write(c.Writer); err != nil {
		_ = c.Error(err)
	}
}

func (s *Server) adjustStock(c *gin.Context) {
	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	move, err := s.svc.Ledger.AdjustStock(c.Request.Context(), ledger.AdjustInput{
		ItemID:   req.ItemID,
		Delta:    req.Delta,
		BizDate:  req.BizDate,
		Operator: req.Operator,
		Remark:   req.Remark,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, move)
}

func (s *Server) reconcile(c *gin.Context) {
	diffs, err := s.svc.Ledger.Reconcile(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if diffs == nil {
		diffs = []models.Discrepancy{}
	}
	c.JSON(http.StatusOK, gin.H{"consistent": len(diffs) == 0, "discrepancies": diffs})
}
