package models

// ClaimStatus is the fulfilment state of a claim document.
type ClaimStatus string

const (
	ClaimDraft     ClaimStatus = "DRAFT"
	ClaimSubmitted ClaimStatus = "SUBMITTED"
	ClaimPartial   ClaimStatus = "PARTIAL"
	ClaimArrived   ClaimStatus = "ARRIVED"
	ClaimClosed    ClaimStatus = "CLOSED"
)

// Valid reports whether s is a known claim status.
func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimDraft, ClaimSubmitted, ClaimPartial, ClaimArrived, ClaimClosed:
		return true
	}
	return false
}

// Terminal reports whether no further change is possible.
func (s ClaimStatus) Terminal() bool {
	return s == ClaimClosed
}

// AcceptsReceipts reports whether inbound lines may be posted against the claim.
func (s ClaimStatus) AcceptsReceipts() bool {
	return s == ClaimSubmitted || s == ClaimPartial || s == ClaimArrived
}

// CanSetTo reports whether a user may assign next directly. Only submitting
// a draft and closing are user actions; PARTIAL and ARRIVED come from receipts.
// Re-assigning the current status is a no-op and allowed.
func (s ClaimStatus) CanSetTo(next ClaimStatus) bool {
	if s == next {
		return true
	}
	switch next {
	case ClaimSubmitted:
		return s == ClaimDraft
	case ClaimClosed:
		return !s.Terminal()
	}
	return false
}

// ClaimLineProgress compares requested and received quantity for one claim line.
type ClaimLineProgress struct {
	LineID    int64  `json:"line_id"`
	ItemID    int64  `json:"item_id"`
	ItemName  string `json:"item_name"`
	Unit      string `json:"unit"`
	Requested int64  `json:"requested_qty"`
	Received  int64  `json:"received_qty"`
}

// Outstanding returns the quantity still to be received, never negative.
func (p ClaimLineProgress) Outstanding() int64 {
	if p.Received >= p.Requested {
		return 0
	}
	return p.Requested - p.Received
}

// DeriveClaimStatus computes the status a claim should have after receipts.
// CLOSED and DRAFT are kept as they are; otherwise ARRIVED when every line is
// satisfied, PARTIAL when anything was received, SUBMITTED when nothing was.
func DeriveClaimStatus(current ClaimStatus, lines []ClaimLineProgress) ClaimStatus {
	if current == ClaimClosed || current == ClaimDraft || len(lines) == 0 {
		return current
	}

	all, some := true, false
	for _, l := range lines {
		if l.Received < l.Requested {
			all = false
		}
		if l.Received > 0 {
			some = true
		}
	}

	switch {
	case all:
		return ClaimArrived
	case some:
		return ClaimPartial
	default:
		return ClaimSubmitted
	}
}
