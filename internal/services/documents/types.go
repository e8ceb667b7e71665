package documents

import "github.com/stockroom/warehouse/internal/models"

// CreateDocumentInput contains data for creating a document.
type CreateDocumentInput struct {
	Type        models.DocType
	DocNo       string
	BizDate     string
	CompanyName string
	Requester   string
	Operator    string
	Remark      string

	// Status applies to claims only. Empty means DRAFT.
	Status models.ClaimStatus

	Lines []LineInput
}

// LineInput is one requested document line. Empty Unit, Spec and nil
// CategoryID fall back to the item's defaults.
type LineInput struct {
	ItemID     int64
	Qty        int64
	Unit       string
	Spec       string
	Remark     string
	CategoryID *int64

	// ClaimID links an inbound line to the claim it fulfils.
	ClaimID *int64
}

// MovementInput is a single-line inbound or outbound posting.
type MovementInput struct {
	ItemID     int64
	Qty        int64
	BizDate    string
	Operator   string
	Note       string
	ClaimID    *int64
	CategoryID *int64
}

// ClaimSummary is a claim header with its line progress.
type ClaimSummary struct {
	Claim *models.Doc                `json:"claim"`
	Lines []models.ClaimLineProgress `json:"lines"`
}
