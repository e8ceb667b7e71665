package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stockroom/warehouse/internal/apperr"
	"github.com/stockroom/warehouse/internal/database"
)

const backupFilename = "warehouse-backup.db"

// attachment sets the headers of a file download.
func attachment(c *gin.Context, contentType, filename string) {
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
}

func (s *Server) health(c *gin.Context) {
	ctx := c.Request.Context()
	body := gin.H{
		"status":    "ok",
		"timestamp": s.clock.Now().UTC(),
		"version":   s.version,
		"uptime":    s.clock.Now().Sub(s.started).Round(time.Second).String(),
	}

	if err := s.db.HealthCheck(ctx); err != nil {
		slog.Error("health check failed", "error", err)
		body["status"] = "unavailable"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}

	if stats, err := s.db.GetStats(ctx); err == nil {
		body["database"] = stats
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) exportBackup(c *gin.Context) {
	attachment(c, "application/octet-stream", backupFilename)
	n, err := s.db.ExportSnapshot(c.Request.Context(), c.Writer)
	if err != nil {
		if n == 0 && !c.Writer.Written() {
			c.Writer.Header().Del("Content-Type")
			c.Writer.Header().Del("Content-Disposition")
			respondError(c, apperr.IO("exporting backup", err))
			return
		}
		_ = c.Error(err)
		return
	}
	slog.Info("backup exported", "bytes", n)
}

func (s *Server) importBackup(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, apperr.Validation("file is required"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, apperr.IO("reading upload", err))
		return
	}
	defer f.Close()

	result, err := s.db.ImportSnapshot(c.Request.Context(), f)
	if err != nil {
		if errors.Is(err, database.ErrIncompatibleSnapshot) {
			respondError(c, apperr.Validation("%v", err))
			return
		}
		respondError(c, apperr.IO("importing backup", err))
		return
	}
	c.JSON(http.StatusOK, result)
}
