package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Decision is the authorization gate's answer. Reason is set only when
// the action is denied.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

const quotaPrecision = 6

// CanPerform reports whether the member may execute action on the wallet.
// Read-only: safe to call concurrently and speculatively.
func CanPerform(m *Member, w *SharedWallet, action Action) Decision {
	if d := statusGate(m); !d.Allowed {
		return d
	}
	if d := walletGate(w, action); !d.Allowed {
		return d
	}

	perms := ResolvePermissions(m, w)
	switch action {
	case ActionInvite:
		if !perms.CanInviteMembers {
			return deny("missing canInviteMembers permission")
		}
	case ActionWithdraw:
		if !perms.CanWithdraw {
			return deny("missing canWithdraw permission")
		}
	case ActionManageSettings:
		if !perms.CanManageSettings {
			return deny("missing canManageSettings permission")
		}
	case ActionRemoveMembers:
		if !perms.CanRemoveMembers {
			return deny("missing canRemoveMembers permission")
		}
	case ActionViewTransactions:
		if !perms.CanViewTransactions {
			return deny("missing canViewTransactions permission")
		}
	case ActionFund:
		if !perms.CanFund {
			return deny("missing canFund permission")
		}
	default:
		return deny(fmt.Sprintf("unknown action %q", string(action)))
	}

	return allow()
}

// CanWithdrawAmount layers the quota checks on top of the withdraw gate.
func CanWithdrawAmount(m *Member, w *SharedWallet, amount decimal.Decimal, now time.Time) Decision {
	if !amount.IsPositive() {
		return deny("amount must be positive")
	}
	if d := CanPerform(m, w, ActionWithdraw); !d.Allowed {
		return d
	}

	perms := ResolvePermissions(m, w)

	if perms.WithdrawalLimit != nil && amount.GreaterThan(*perms.WithdrawalLimit) {
		return deny(fmt.Sprintf(
			"amount exceeds the per-transaction limit of %s %s",
			perms.WithdrawalLimit.StringFixed(quotaPrecision), w.CurrencyCode,
		))
	}

	if perms.DailyWithdrawalLimit != nil {
		current := m.DailyWithdrawnOn(now)
		if current.Add(amount).GreaterThan(*perms.DailyWithdrawalLimit) {
			remaining := perms.DailyWithdrawalLimit.Sub(current)
			if remaining.IsNegative() {
				remaining = decimal.Zero
			}
			return deny(fmt.Sprintf(
				"daily limit reached, %s %s remaining today",
				remaining.StringFixed(quotaPrecision), w.CurrencyCode,
			))
		}
	}

	return allow()
}

func statusGate(m *Member) Decision {
	switch m.Status {
	case StatusActive:
		return allow()
	case StatusInvited:
		return deny("invitation has not been accepted yet")
	case StatusRemoved:
		return deny("member was removed from the wallet")
	case StatusLeft:
		return deny("member has left the wallet")
	default:
		return deny("not an active member")
	}
}

func walletGate(w *SharedWallet, action Action) Decision {
	switch w.Status {
	case WalletArchived:
		if action != ActionViewTransactions {
			return deny("wallet is archived")
		}
	case WalletPaused:
		if action == ActionWithdraw || action == ActionFund {
			return deny("wallet is paused")
		}
	}
	return allow()
}
