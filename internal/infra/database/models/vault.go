package models

import (
	"time"
)

// WalletKey holds the client-encrypted key material. The payload is
// opaque to the engine; the checksum is verified on every read. Grants
// list who may fetch the payload.
type WalletKey struct {
	WalletID string    `json:"walletId" gorm:"primaryKey;type:text"`
	Wallet   Wallet    `json:"-" gorm:"foreignKey:WalletID;references:ID;constraint:OnDelete:CASCADE;"`
	Payload  []byte    `json:"payload" gorm:"type:bytea;not null"`
	Checksum []byte    `json:"checksum" gorm:"type:bytea;not null"`
	Grants   string    `json:"grants" gorm:"type:jsonb;not null;default:'[]'"`
	Revision int64     `json:"revision" gorm:"type:bigint;not null;default:0"`
	CDate    time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate    time.Time `json:"mdate" gorm:"type:timestamp with time zone;not null;default:clock_timestamp()"`
}
