package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Activity is one append-only audit entry. Rows are never updated or
// deleted individually; they go away with their wallet.
type Activity struct {
	ID         string           `json:"id" gorm:"primaryKey;type:text"`
	WalletID   string           `json:"walletId" gorm:"type:text;not null;index"`
	Wallet     Wallet           `json:"-" gorm:"foreignKey:WalletID;references:ID;constraint:OnDelete:CASCADE;"`
	Kind       string           `json:"kind" gorm:"type:text;not null"`
	ActorID    string           `json:"actorId" gorm:"type:text;index"`
	SubjectIDs pq.StringArray   `json:"subjectIds" gorm:"type:text[]"`
	Note       string           `json:"note" gorm:"type:text"`
	Amount     *decimal.Decimal `json:"amount" gorm:"type:numeric"`
	CDate      time.Time        `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
