package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is the persistence row for one shared wallet. The roster and
// settings are stored as jsonb documents and the revision column guards
// every update optimistically.
type Wallet struct {
	ID           string          `json:"id" gorm:"primaryKey;type:text"`
	Name         string          `json:"name" gorm:"type:text;not null"`
	CreatorID    string          `json:"creatorId" gorm:"type:text;not null;index"`
	Address      string          `json:"address" gorm:"type:text;not null"`
	TotalBalance decimal.Decimal `json:"totalBalance" gorm:"type:numeric;not null;default:0"`
	CurrencyCode string          `json:"currencyCode" gorm:"type:text;not null"`
	Status       string          `json:"status" gorm:"type:text;not null;default:'active';index"`
	Members      string          `json:"members" gorm:"type:jsonb;not null;default:'[]'"`
	Settings     string          `json:"settings" gorm:"type:jsonb;not null;default:'{}'"`
	CustomColor  string          `json:"customColor" gorm:"type:text"`
	CustomLogo   string          `json:"customLogo" gorm:"type:text"`
	Revision     int64           `json:"revision" gorm:"type:bigint;not null;default:0"`
	CDate        time.Time       `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate        time.Time       `json:"mdate" gorm:"type:timestamp with time zone;not null;default:clock_timestamp()"`
}
