package domain

import "time"

// KeyAccessGrant authorizes one user to decrypt the shared key payload.
type KeyAccessGrant struct {
	UserID string `json:"userId"`
	Name   string `json:"name,omitempty"`
}

// VaultRecord is the key vault's row for one wallet: the opaque encrypted
// key material, its integrity checksum and the grant list. The payload is
// produced and consumed outside this engine and never interpreted here.
type VaultRecord struct {
	WalletID  string           `json:"walletId"`
	Payload   []byte           `json:"payload"`
	Checksum  []byte           `json:"checksum"`
	Grants    []KeyAccessGrant `json:"grants"`
	Revision  int64            `json:"revision"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// HasGrant reports whether userID appears on the grant list.
func (v *VaultRecord) HasGrant(userID string) bool {
	for _, g := range v.Grants {
		if g.UserID == userID {
			return true
		}
	}
	return false
}

// DesiredGrants derives the grant entries the vault must contain for the
// wallet's current roster: one per active member.
func DesiredGrants(w *SharedWallet) []KeyAccessGrant {
	grants := make([]KeyAccessGrant, 0, len(w.Members))
	for i := range w.Members {
		m := &w.Members[i]
		if m.Status != StatusActive {
			continue
		}
		grants = append(grants, KeyAccessGrant{UserID: m.UserID, Name: m.Name})
	}
	return grants
}

// MissingGrants returns the desired grants absent from current.
func MissingGrants(w *SharedWallet, current []KeyAccessGrant) []KeyAccessGrant {
	have := make(map[string]struct{}, len(current))
	for _, g := range current {
		have[g.UserID] = struct{}{}
	}

	missing := []KeyAccessGrant{}
	for _, g := range DesiredGrants(w) {
		if _, ok := have[g.UserID]; !ok {
			missing = append(missing, g)
		}
	}
	return missing
}

// ChangeSet carries the side writes a roster mutation commits in the same
// transaction as the wallet row: grant-list deltas applied add-only /
// remove-explicit, and audit appends.
type ChangeSet struct {
	AddGrants    []KeyAccessGrant
	RevokeGrants []string
	Activities   []ActivityRecord
}
