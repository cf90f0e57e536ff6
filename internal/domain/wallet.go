package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SharedWallet is the membership aggregate for one custodial wallet: the
// roster, the wallet-wide settings and the balance the transfer pipeline
// maintains. TotalBalance never goes negative.
type SharedWallet struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	CreatorID    string          `json:"creatorId"`
	Address      string          `json:"address"`
	TotalBalance decimal.Decimal `json:"totalBalance"`
	CurrencyCode string          `json:"currencyCode"`
	Status       WalletStatus    `json:"status"`
	Members      []Member        `json:"members"`
	Settings     Settings        `json:"settings"`
	CustomColor  string          `json:"customColor,omitempty"`
	CustomLogo   string          `json:"customLogo,omitempty"`
	Revision     int64           `json:"revision"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Member is one roster entry. Entries are append-only: removal and
// leaving flip the status, they never delete the entry.
type Member struct {
	UserID           string              `json:"userId"`
	Name             string              `json:"name,omitempty"`
	Address          string              `json:"address,omitempty"`
	Role             Role                `json:"role"`
	Status           MemberStatus        `json:"status"`
	Contributed      decimal.Decimal     `json:"contributed"`
	Withdrawn        decimal.Decimal     `json:"withdrawn"`
	DailyWithdrawn   decimal.Decimal     `json:"dailyWithdrawn"`
	LastWithdrawalAt *time.Time          `json:"lastWithdrawalAt,omitempty"`
	Permissions      *PermissionOverride `json:"permissions,omitempty"`
	PayoutIDs        []string            `json:"payoutIds,omitempty"`
	InvitedBy        string              `json:"invitedBy,omitempty"`
	InvitedAt        time.Time           `json:"invitedAt"`
	JoinedAt         *time.Time          `json:"joinedAt,omitempty"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

type Settings struct {
	AllowMemberInvites            bool       `json:"allowMemberInvites"`
	RequireApprovalForWithdrawals bool       `json:"requireApprovalForWithdrawals"`
	MaxMembers                    *int       `json:"maxMembers,omitempty"`
	AutoTopUp                     *AutoTopUp `json:"autoTopUp,omitempty"`
	EnableCustomPermissions       bool       `json:"enableCustomPermissions"`
}

type AutoTopUp struct {
	Threshold decimal.Decimal `json:"threshold"`
	Amount    decimal.Decimal `json:"amount"`
}

// Member returns the roster entry for userID regardless of status.
func (w *SharedWallet) Member(userID string) (*Member, bool) {
	for i := range w.Members {
		if w.Members[i].UserID == userID {
			return &w.Members[i], true
		}
	}
	return nil, false
}

func (w *SharedWallet) IsCreator(userID string) bool {
	return w.CreatorID == userID
}

// ActiveMemberIDs returns the identities with active status. This is the
// set the key-access grant list must cover.
func (w *SharedWallet) ActiveMemberIDs() []string {
	ids := make([]string, 0, len(w.Members))
	for i := range w.Members {
		if w.Members[i].Status == StatusActive {
			ids = append(ids, w.Members[i].UserID)
		}
	}
	return ids
}

// EnsureMutable rejects roster and settings mutations on archived wallets.
func (w *SharedWallet) EnsureMutable() error {
	if w.Status == WalletArchived {
		return ValidationError{Message: "wallet is archived"}
	}
	return nil
}

// DailyWithdrawnOn returns the rolling daily counter as of now: zero when
// the stored withdrawal date falls on a different UTC day.
func (m *Member) DailyWithdrawnOn(now time.Time) decimal.Decimal {
	if m.LastWithdrawalAt == nil || !sameUTCDay(*m.LastWithdrawalAt, now) {
		return decimal.Zero
	}
	return m.DailyWithdrawn
}

// RollDailyCounter accumulates a completed withdrawal into the rolling
// daily counter, resetting it first when now falls on a different UTC day.
func (m *Member) RollDailyCounter(amount decimal.Decimal, now time.Time) {
	if m.LastWithdrawalAt == nil || !sameUTCDay(*m.LastWithdrawalAt, now) {
		m.DailyWithdrawn = amount
	} else {
		m.DailyWithdrawn = m.DailyWithdrawn.Add(amount)
	}
	t := now
	m.LastWithdrawalAt = &t
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
