// Package documents is the only writer of documents and their lines. Creating
// an inbound or outbound document posts every line to the ledger and the
// balance cache in the same transaction, so a document either exists with all
// of its moves or not at all.
package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stockroom/warehouse/internal/apperr"
	"github.com/stockroom/warehouse/internal/database"
	"github.com/stockroom/warehouse/internal/models"
	"github.com/stockroom/warehouse/internal/repository"
	"github.com/stockroom/warehouse/internal/services/ledger"
	"github.com/stockroom/warehouse/internal/util"
)

// Service provides document operations.
type Service struct {
	db     *database.DB
	docs       *repository.DocRepository
	items      *repository.ItemRepository
	categories *repository.CategoryRepository
	ledger *ledger.Service
	clock  util.Clock
	docNos *util.DocNumberGenerator
}

// NewService creates a new document service posting through ledgerSvc.
func NewService(db *database.DB, ledgerSvc *ledger.Service, clock util.Clock) *Service {
	return &Service{
		db:     db,
		docs:       repository.NewDocRepository(db.DB),
		items:      repository.NewItemRepository(db.DB),
		categories: repository.NewCategoryRepository(db.DB),
		ledger: ledgerSvc,
		clock:  clock,
		docNos: util.NewDocNumberGenerator(clock),
	}
}

// ============================================================================
// CREATE
// ============================================================================

// CreateDocument writes a document with its lines and returns the new id.
// Inbound and outbound lines are posted to the ledger; inbound lines linked to
// a claim refresh that claim's status. Any failure rolls back everything.
func (s *Service) CreateDocument(ctx context.Context, input CreateDocumentInput) (int64, error) {
	input.DocNo = strings.TrimSpace(input.DocNo)
	input.Operator = strings.TrimSpace(input.Operator)
	if err := validateCreate(&input); err != nil {
		s.logRejected(input, err)
		return 0, err
	}

	now := s.clock.Now()
	doc := &models.Doc{
		DocType:     input.Type,
		DocNo:       input.DocNo,
		BizDate:     input.BizDate,
		CompanyName: input.CompanyName,
		Requester:   input.Requester,
		Operator:    input.Operator,
		Status:      input.Status,
		Remark:      input.Remark,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		exists, err := s.docs.DocNoExists(ctx, tx, doc.DocType, doc.DocNo)
		if err != nil {
			return err
		}
		if exists {
			return apperr.DuplicateDocNo(string(doc.DocType), doc.DocNo)
		}

		if err := s.docs.Create(ctx, tx, doc); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperr.DuplicateDocNo(string(doc.DocType), doc.DocNo)
			}
			return err
		}

		claims := make(map[int64]struct{})
		for i, in := range input.Lines {
			line, err := s.buildLine(ctx, tx, doc, i, in)
			if err != nil {
				return err
			}
			if err := s.docs.CreateLine(ctx, tx, line); err != nil {
				if errors.Is(err, repository.ErrReference) {
					return apperr.Validation("line %d: references a missing record", i+1)
				}
				return err
			}
			doc.Lines = append(doc.Lines, *line)
			if line.ClaimID != nil {
				claims[*line.ClaimID] = struct{}{}
			}
		}

		if doc.DocType.Posts() {
			if err := s.postLines(ctx, tx, doc); err != nil {
				return err
			}
		}

		for claimID := range claims {
			if err := s.refreshClaim(ctx, tx, claimID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logRejected(input, err)
		return 0, fmt.Errorf("creating %s document: %w", input.Type, err)
	}

	slog.Debug("document created",
		"doc_id", doc.ID, "type", doc.DocType, "doc_no", doc.DocNo, "lines", len(doc.Lines))
	return doc.ID, nil
}

func validateCreate(input *CreateDocumentInput) error {
	if !input.Type.Valid() {
		return apperr.Validation("unknown document type %q", input.Type)
	}
	if input.DocNo == "" {
		return apperr.Validation("doc_no is required")
	}
	if !util.ValidDate(input.BizDate) {
		return apperr.Validation("biz_date must be YYYY-MM-DD")
	}
	if len(input.Lines) == 0 {
		return apperr.Validation("a document needs at least one line")
	}

	if input.Type == models.DocTypeClaim {
		switch input.Status {
		case "":
			input.Status = models.ClaimDraft
		case models.ClaimDraft, models.ClaimSubmitted:
		default:
			return apperr.Validation("a new claim must be DRAFT or SUBMITTED, not %q", input.Status)
		}
	} else if input.Status != "" {
		return apperr.Validation("%s documents have no status", input.Type)
	}

	for i, line := range input.Lines {
		if line.ItemID <= 0 {
			return apperr.Validation("line %d: item_id is required", i+1)
		}
		if line.Qty < 1 {
			return apperr.Validation("line %d: qty must be at least 1", i+1)
		}
		if line.ClaimID != nil && input.Type != models.DocTypeInbound {
			return apperr.Validation("line %d: only inbound lines may reference a claim", i+1)
		}
	}
	return nil
}

// buildLine resolves the line's item and fills in its defaults.
func (s *Service) buildLine(ctx context.Context, tx *sql.Tx, doc *models.Doc, index int, in LineInput) (*models.DocLine, error) {
	item, err := s.items.GetByID(ctx, tx, in.ItemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ItemNotFound(in.ItemID)
		}
		return nil, err
	}

	line := &models.DocLine{
		DocID:      doc.ID,
		ItemID:     item.ID,
		ItemName:   item.Name,
		Spec:       strings.TrimSpace(in.Spec),
		Qty:        in.Qty,
		Unit:       strings.TrimSpace(in.Unit),
		Remark:     in.Remark,
		CategoryID: in.CategoryID,
		ClaimID:    in.ClaimID,
		SortNo:     index,
		CreatedAt:  doc.CreatedAt,
	}
	if line.Unit == "" {
		line.Unit = item.UnitDefault
	}
	if line.Spec == "" {
		line.Spec = item.SpecDefault
	}
	if line.CategoryID == nil {
		line.CategoryID = item.CategoryID
	} else if _, err := s.categories.GetByID(ctx, tx, *line.CategoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Validation("line %d: category %d does not exist", index+1, *line.CategoryID)
		}
		return nil, err
	}

	if line.ClaimID != nil {
		if err := s.checkClaimOpen(ctx, tx, *line.ClaimID, item); err != nil {
			return nil, fmt.Errorf("line %d: %w", index+1, err)
		}
	}
	return line, nil
}

// checkClaimOpen requires claimID to be a claim that accepts receipts and
// requests item.
func (s *Service) checkClaimOpen(ctx context.Context, tx *sql.Tx, claimID int64, item *models.Item) error {
	claim, err := s.docs.GetByID(ctx, tx, claimID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.Validation("claim %d does not exist", claimID)
		}
		return err
	}
	if claim.DocType != models.DocTypeClaim {
		return apperr.Validation("document %d is not a claim", claimID)
	}
	if !claim.Status.AcceptsReceipts() {
		return apperr.Validation("claim %s is %s and cannot receive goods", claim.DocNo, claim.Status)
	}

	lines, err := s.docs.Lines(ctx, tx, claimID)
	if err != nil {
		return err
	}
	for _, l := range lines {
		if l.ItemID == item.ID {
			return nil
		}
	}
	return apperr.Validation("claim %s does not request %s", claim.DocNo, item.Name)
}

// postLines records one move per line and applies it to the balance.
func (s *Service) postLines(ctx context.Context, tx *sql.Tx, doc *models.Doc) error {
	moveType := doc.DocType.MoveType()
	for _, line := range doc.Lines {
		delta := line.Qty
		if moveType == models.MoveTypeOut {
			delta = -delta
		}

		move := &models.StockMove{
			MoveType:  moveType,
			BizDate:   doc.BizDate,
			ItemID:    line.ItemID,
			QtyDelta:  delta,
			DocID:     &doc.ID,
			Operator:  doc.Operator,
			Remark:    line.Remark,
			CreatedAt: doc.CreatedAt,
		}
		if err := s.ledger.RecordMove(ctx, tx, move); err != nil {
			return err
		}
		if _, err := s.ledger.ApplyBalanceDelta(ctx, tx, line.ItemID, delta); err != nil {
			return err
		}
	}
	return nil
}

// refreshClaim recomputes a claim's status from its receipts.
func (s *Service) refreshClaim(ctx context.Context, tx *sql.Tx, claimID int64) error {
	claim, err := s.docs.GetByID(ctx, tx, claimID)
	if err != nil {
		return fmt.Errorf("loading claim %d: %w", claimID, err)
	}
	progress, err := s.docs.ClaimProgress(ctx, tx, claimID)
	if err != nil {
		return err
	}

	next := models.DeriveClaimStatus(claim.Status, progress)
	if next == claim.Status {
		return nil
	}
	slog.Debug("claim status derived", "claim_id", claimID, "from", claim.Status, "to", next)
	return s.docs.SetStatus(ctx, tx, claimID, next, s.clock.Now())
}

func (s *Service) logRejected(input CreateDocumentInput, err error) {
	slog.Warn("document rejected",
		"type", input.Type, "doc_no", input.DocNo, "kind", apperr.KindOf(err), "error", err)
}

// RecordMovement posts a single-line inbound or outbound document with a
// generated number of the form IN-<biz_date>-<millis> or OUT-....
func (s *Service) RecordMovement(ctx context.Context, docType models.DocType, input MovementInput) (*models.Doc, error) {
	var prefix string
	switch docType {
	case models.DocTypeInbound:
		prefix = "IN"
	case models.DocTypeOutbound:
		prefix = "OUT"
		if input.ClaimID != nil {
			return nil, apperr.Validation("outbound movements cannot reference a claim")
		}
	default:
		return nil, apperr.Validation("movements must be inbound or outbound, not %q", docType)
	}
	if !util.ValidDate(input.BizDate) {
		return nil, apperr.Validation("biz_date must be YYYY-MM-DD")
	}

	id, err := s.CreateDocument(ctx, CreateDocumentInput{
		Type:     docType,
		DocNo:    s.docNos.Next(prefix, input.BizDate),
		BizDate:  input.BizDate,
		Operator: input.Operator,
		Remark:   input.Note,
		Lines: []LineInput{{
			ItemID:     input.ItemID,
			Qty:        input.Qty,
			Remark:     input.Note,
			CategoryID: input.CategoryID,
			ClaimID:    input.ClaimID,
		}},
	})
	if err != nil {
		return nil, err
	}
	return s.GetDocument(ctx, id)
}

// ============================================================================
// READ
// ============================================================================

// GetDocument returns a document with its ordered lines, or nil when no
// document has the id.
func (s *Service) GetDocument(ctx context.Context, id int64) (*models.Doc, error) {
	doc, err := s.docs.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting document: %w", err)
	}

	lines, err := s.docs.Lines(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("getting document lines: %w", err)
	}
	doc.Lines = lines
	return doc, nil
}

// ListDocuments returns document headers. Sorting defaults to created_at
// descending.
func (s *Service) ListDocuments(ctx context.Context, filter models.DocFilter) ([]models.Doc, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, apperr.Validation("unknown document type %q", filter.Type)
	}
	if filter.Sort == "" {
		filter.Sort = models.DocSortCreatedAt
	}
	if filter.Sort != models.DocSortCreatedAt && filter.Sort != models.DocSortBizDate {
		return nil, apperr.Validation("cannot sort documents by %q", filter.Sort)
	}
	if filter.Order == "" {
		filter.Order = models.SortDesc
	}
	return s.docs.List(ctx, filter)
}

// ClaimsForInbound lists claims that may still receive goods, newest first.
func (s *Service) ClaimsForInbound(ctx context.Context) ([]models.Doc, error) {
	return s.docs.List(ctx, models.DocFilter{
		Type:     models.DocTypeClaim,
		Statuses: []models.ClaimStatus{models.ClaimSubmitted, models.ClaimPartial},
		Sort:     models.DocSortCreatedAt,
		Order:    models.SortDesc,
	})
}

// ClaimProgress returns a claim with requested and received quantity per line.
func (s *Service) ClaimProgress(ctx context.Context, claimID int64) (*ClaimSummary, error) {
	claim, err := s.docs.GetByID(ctx, nil, claimID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("claim", claimID)
		}
		return nil, err
	}
	if claim.DocType != models.DocTypeClaim {
		return nil, apperr.NotFound("claim", claimID)
	}

	progress, err := s.docs.ClaimProgress(ctx, nil, claimID)
	if err != nil {
		return nil, fmt.Errorf("getting claim progress: %w", err)
	}
	return &ClaimSummary{Claim: claim, Lines: progress}, nil
}

// ============================================================================
// UPDATE
// ============================================================================

// UpdateDocumentHeader changes header fields only. A claim's status may only
// be moved from DRAFT to SUBMITTED or to CLOSED; other statuses are derived
// from receipts.
func (s *Service) UpdateDocumentHeader(ctx context.Context, id int64, upd models.DocUpdate) error {
	if upd.BizDate.Set && !util.ValidDate(upd.BizDate.Value) {
		return apperr.Validation("biz_date must be YYYY-MM-DD")
	}
	if upd.Operator.Set {
		upd.Operator.Value = strings.TrimSpace(upd.Operator.Value)
	}
	if upd.Status.Set && !upd.Status.Value.Valid() {
		return apperr.Validation("unknown status %q", upd.Status.Value)
	}

	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		doc, err := s.docs.GetByID(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.NotFound("document", id)
			}
			return err
		}

		if upd.Status.Set {
			if doc.DocType != models.DocTypeClaim {
				return apperr.Validation("%s documents have no status", doc.DocType)
			}
			if !doc.Status.CanSetTo(upd.Status.Value) {
				return apperr.InvalidTransition(string(doc.Status), string(upd.Status.Value))
			}
		}

		return s.docs.UpdateHeader(ctx, tx, id, upd, s.clock.Now())
	})
	if err != nil {
		return fmt.Errorf("updating document %d: %w", id, err)
	}

	if upd.Status.Set {
		slog.Info("claim status set", "doc_id", id, "status", upd.Status.Value)
	}
	return nil
}
