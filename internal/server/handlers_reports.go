package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stockroom/warehouse/internal/models"
	"github.com/stockroom/warehouse/internal/services/reports"
)

func (q reportQuery) rng() reports.Range {
	return reports.Range{Start: q.Start, End: q.End, ItemID: q.ItemID, Operator: q.Operator}
}

func (s *Server) dailyReport(c *gin.Context) {
	var q reportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, bindError(err))
		return
	}

	totals, err := s.svc.Reports.Daily(c.Request.Context(), q.rng())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (s *Server) topItemsReport(c *gin.Context) {
	var q topItemsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, bindError(err))
		return
	}

	totals, err := s.svc.Reports.TopItems(c.Request.Context(), q.rng(), models.MoveType(q.Type), q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (s *Server) movementsReport(c *gin.Context) {
	var q reportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, bindError(err))
		return
	}

	moves, err := s.svc.Reports.Movements(c.Request.Context(), q.rng())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, moves)
}
