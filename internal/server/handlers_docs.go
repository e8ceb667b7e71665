package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stockroom/warehouse/internal/apperr"
	"github.com/stockroom/warehouse/internal/export"
	"github.com/stockroom/warehouse/internal/models"
)

func (s *Server) listDocs(c *gin.Context) {
	var q docsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, bindError(err))
		return
	}

	docs, err := s.svc.Documents.ListDocuments(c.Request.Context(), models.DocFilter{
		Type:  models.DocType(q.Type),
		Sort:  models.DocSort(q.Sort),
		Order: models.ParseSortDirection(q.Order, models.SortDesc),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (s *Server) createDoc(c *gin.Context) {
	var req createDocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	id, err := s.svc.Documents.CreateDocument(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// getDoc answers null for an unknown id.
func (s *Server) getDoc(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	doc, err := s.svc.Documents.GetDocument(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) updateDoc(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req updateDocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	if err := s.svc.Documents.UpdateDocumentHeader(c.Request.Context(), id, req.update()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) updateDocStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	upd := models.DocUpdate{Status: models.Set(models.ClaimStatus(req.Status))}
	if err := s.svc.Documents.UpdateDocumentHeader(c.Request.Context(), id, upd); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) claimProgress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	summary, err := s.svc.Documents.ClaimProgress(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) exportDoc(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	doc, err := s.svc.Documents.GetDocument(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if doc == nil {
		respondError(c, apperr.NotFound("document", id))
		return
	}

	f, filename, err := export.DocumentWorkbook(doc)
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

// ============================================================================
// MOVES
// ============================================================================

func (s *Server) listMoves(c *gin.Context) {
	var q movesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, bindError(err))
		return
	}

	moves, err := s.svc.Ledger.StockMoves(c.Request.Context(), models.MoveFilter{
		ItemID: q.ItemID,
		Start:  q.Start,
		End:    q.End,
		Limit:  q.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, moves)
}

func (s *Server) recentMoves(c *gin.Context) {
	var q limitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, bindError(err))
		return
	}

	moves, err := s.svc.Ledger.RecentMoves(c.Request.Context(), q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, moves)
}

func (s *Server) itemMoves(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var q limitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, bindError(err))
		return
	}

	moves, err := s.svc.Ledger.ItemHistory(c.Request.Context(), id, q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, moves)
}

func (s *Server) movementIn(c *gin.Context) {
	s.recordMovement(c, models.DocTypeInbound)
}

func (s *Server) movementOut(c *gin.Context) {
	s.recordMovement(c, models.DocTypeOutbound)
}

func (s *Server) recordMovement(c *gin.Context, docType models.DocType) {
	var req movementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	doc, err := s.svc.Documents.RecordMovement(c.Request.Context(), docType, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": doc.ID, "doc_no": doc.DocNo})
}

// ============================================================================
// CLAIMS
// ============================================================================

// claimSummary is the list shape the claim pickers expect.
type claimSummary struct {
	ID        int64              `json:"id"`
	ClaimNo   string             `json:"claim_no"`
	BizDate   string             `json:"biz_date"`
	Requester string             `json:"requester"`
	Status    models.ClaimStatus `json:"status"`
	Note      *string            `json:"note"`
	CreatedAt time.Time          `json:"created_at"`
}

// claimItem is a claim line with its fulfilment.
type claimItem struct {
	models.DocLine
	RequestedQty int64  `json:"requested_qty"`
	ItemSpec     string `json:"item_spec"`
	ReceivedQty  int64  `json:"received_qty"`
}

// claimDetail is a claim document in the requisition shape.
type claimDetail struct {
	*models.Doc
	ClaimNo string      `json:"claim_no"`
	Note    *string     `json:"note"`
	Items   []claimItem `json:"items"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *Server) listClaims(c *gin.Context) {
	docs, err := s.svc.Documents.ListDocuments(c.Request.Context(), models.DocFilter{Type: models.DocTypeClaim})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (s *Server) createClaim(c *gin.Context) {
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	id, err := s.svc.Documents.CreateDocument(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) claimsForInbound(c *gin.Context) {
	docs, err := s.svc.Documents.ClaimsForInbound(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]claimSummary, len(docs))
	for i, d := range docs {
		out[i] = claimSummary{
			ID:        d.ID,
			ClaimNo:   d.DocNo,
			BizDate:   d.BizDate,
			Requester: d.Requester,
			Status:    d.Status,
			Note:      optional(d.Remark),
			CreatedAt: d.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, out)
}

// getClaim answers null when id is not a claim.
func (s *Server) getClaim(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	doc, err := s.svc.Documents.GetDocument(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if doc == nil || doc.DocType != models.DocTypeClaim {
		c.JSON(http.StatusOK, nil)
		return
	}

	summary, err := s.svc.Documents.ClaimProgress(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	received := make(map[int64]int64, len(summary.Lines))
	for _, p := range summary.Lines {
		received[p.LineID] = p.Received
	}

	items := make([]claimItem, len(doc.Lines))
	for i, l := range doc.Lines {
		items[i] = claimItem{
			DocLine:      l,
			RequestedQty: l.Qty,
			ItemSpec:     l.Spec,
			ReceivedQty:  received[l.ID],
		}
	}

	c.JSON(http.StatusOK, claimDetail{
		Doc:     doc,
		ClaimNo: doc.DocNo,
		Note:    optional(doc.Remark),
		Items:   items,
	})
}

func (s *Server) claimItems(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	doc, err := s.svc.Documents.GetDocument(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if doc == nil {
		c.JSON(http.StatusOK, []models.DocLine{})
		return
	}
	c.JSON(http.StatusOK, doc.Lines)
}
