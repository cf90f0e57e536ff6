package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActivityRecord is one append-only audit entry. ID is a content hash
// filled in by the store when left empty.
type ActivityRecord struct {
	ID         string           `json:"id"`
	WalletID   string           `json:"walletId"`
	Kind       string           `json:"kind"`
	ActorID    string           `json:"actorId"`
	SubjectIDs []string         `json:"subjectIds,omitempty"`
	Note       string           `json:"note,omitempty"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}
