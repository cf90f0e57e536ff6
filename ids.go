package covault

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/cosmos/cosmos-sdk/types/bech32"

	"github.com/zeebo/xxh3"
)

// Identifier prefixes. Every covault identifier is a 42-character bech32
// string: a 3-character prefix, the separator, and a 20-byte payload.
const (
	UserPrefix    = "cvu"
	WalletPrefix  = "cvw"
	ServicePrefix = "cvs"
)

const idLength = 42

// EncodeID encodes a 20-byte payload into a covault identifier.
func EncodeID(prefix string, payload [20]byte) (string, error) {
	return bech32.ConvertAndEncode(prefix, payload[:])
}

func isID(prefix, id string) bool {
	if len(id) != idLength || id[:3] != prefix {
		return false
	}
	hrp, data, err := bech32.DecodeAndConvert(id)
	if err != nil {
		return false
	}
	return hrp == prefix && len(data) == 20
}

func IsUserID(id string) bool { return isID(UserPrefix, id) }

func IsWalletID(id string) bool { return isID(WalletPrefix, id) }

func IsServiceID(id string) bool { return isID(ServicePrefix, id) }

// NewWalletID derives a wallet identifier from its creator, display name
// and creation time.
func NewWalletID(creatorID, name string, createdAt time.Time) (string, error) {
	sum := xxh3.Hash128([]byte(fmt.Sprintf("%s/%s/%d", creatorID, name, createdAt.UnixNano()))).Bytes()

	var payload [20]byte
	copy(payload[:16], sum[:])
	binary.BigEndian.PutUint32(payload[16:], uint32(createdAt.Unix()))

	return EncodeID(WalletPrefix, payload)
}
