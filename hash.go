package covault

import (
	"crypto/subtle"
	"encoding/hex"

	"github.com/zeebo/xxh3"
	"golang.org/x/crypto/sha3"
)

// GetHash returns the 128-bit content hash used for derived identifiers.
func GetHash(data []byte) []byte {
	sum := xxh3.Hash128(data).Bytes()
	return sum[:]
}

// ContentID returns the hex form of GetHash.
func ContentID(data []byte) string {
	return hex.EncodeToString(GetHash(data))
}

// Checksum computes the integrity checksum stored alongside opaque vault
// payloads.
func Checksum(data []byte) []byte {
	sum := sha3.Sum256(data)
	return sum[:]
}

// VerifyChecksum reports whether data still matches its stored checksum.
func VerifyChecksum(data, checksum []byte) bool {
	return subtle.ConstantTimeCompare(Checksum(data), checksum) == 1
}
