package server

import (
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(
		requestID(),
		requestLogger(),
		recovery(),
		corsPolicy(s.cfg.CORSOrigins),
		timeout(time.Duration(s.cfg.RequestTimeoutSeconds)*time.Second),
	)

	api := r.Group("/api")
	api.GET("/health", s.health)

	api.GET("/categories", s.listCategories)
	api.POST("/categories", s.createCategory)

	api.GET("/items", s.listItems)
	api.POST("/items", s.createItem)
	api.GET("/items/:id", s.getItem)
	api.PUT("/items/:id", s.updateItem)
	api.GET("/v2/items/search", s.searchItems)
	api.GET("/v2/items/:id/moves", s.itemMoves)

	api.GET("/operators", s.listOperators)
	api.POST("/operators", s.createOperator)

	api.GET("/stocks", s.listStocks)
	api.GET("/stocks/alerts", s.stockAlerts)
	api.GET("/stocks/item-detail", s.itemDetail)
	api.GET("/stocks/export", s.exportStocks)

	api.GET("/docs", s.listDocs)
	api.POST("/docs", s.createDoc)
	api.GET("/docs/:id", s.getDoc)
	api.PUT("/docs/:id", s.updateDoc)
	api.PUT("/docs/:id/status", s.updateDocStatus)
	api.GET("/docs/:id/progress", s.claimProgress)
	api.GET("/docs/:id/export", s.exportDoc)

	api.GET("/moves", s.listMoves)
	api.GET("/movements/recent", s.recentMoves)
	api.POST("/movements/in", s.movementIn)
	api.POST("/movements/out", s.movementOut)

	api.GET("/claims", s.listClaims)
	api.POST("/claims", s.createClaim)
	api.GET("/claims/for-inbound", s.claimsForInbound)
	api.GET("/claims/:id", s.getClaim)
	api.PUT("/claims/:id/status", s.updateDocStatus)
	api.GET("/claims/:id/items", s.claimItems)

	api.GET("/reports/daily", s.dailyReport)
	api.GET("/reports/top-items", s.topItemsReport)
	api.GET("/reports/movements", s.movementsReport)

	api.GET("/db/export", s.exportBackup)
	api.POST("/db/import", s.importBackup)

	admin := api.Group("/admin")
	admin.POST("/adjust", s.adjustStock)
	admin.GET("/reconcile", s.reconcile)

	return r
}
