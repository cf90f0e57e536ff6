package domain

import "github.com/shopspring/decimal"

// PermissionSet is a member's effective capability set. Quotas are
// denominated in the wallet's currency; nil means no limit.
type PermissionSet struct {
	CanInviteMembers    bool `json:"canInviteMembers"`
	CanWithdraw         bool `json:"canWithdraw"`
	CanManageSettings   bool `json:"canManageSettings"`
	CanRemoveMembers    bool `json:"canRemoveMembers"`
	CanViewTransactions bool `json:"canViewTransactions"`
	CanFund             bool `json:"canFund"`

	WithdrawalLimit      *decimal.Decimal `json:"withdrawalLimit,omitempty"`
	DailyWithdrawalLimit *decimal.Decimal `json:"dailyWithdrawalLimit,omitempty"`
}

// PermissionOverride is a partial PermissionSet attached to a single
// member. A nil field inherits the role default; explicit false sticks.
type PermissionOverride struct {
	CanInviteMembers    *bool `json:"canInviteMembers,omitempty"`
	CanWithdraw         *bool `json:"canWithdraw,omitempty"`
	CanManageSettings   *bool `json:"canManageSettings,omitempty"`
	CanRemoveMembers    *bool `json:"canRemoveMembers,omitempty"`
	CanViewTransactions *bool `json:"canViewTransactions,omitempty"`
	CanFund             *bool `json:"canFund,omitempty"`

	WithdrawalLimit      *decimal.Decimal `json:"withdrawalLimit,omitempty"`
	DailyWithdrawalLimit *decimal.Decimal `json:"dailyWithdrawalLimit,omitempty"`
}

func defaultPermissions(role Role) PermissionSet {
	switch role {
	case RoleCreator:
		return PermissionSet{
			CanInviteMembers:    true,
			CanWithdraw:         true,
			CanManageSettings:   true,
			CanRemoveMembers:    true,
			CanViewTransactions: true,
			CanFund:             true,
		}
	case RoleAdmin:
		return PermissionSet{
			CanInviteMembers:    true,
			CanWithdraw:         true,
			CanViewTransactions: true,
			CanFund:             true,
		}
	default:
		return PermissionSet{
			CanWithdraw:         true,
			CanViewTransactions: true,
			CanFund:             true,
		}
	}
}

// ResolvePermissions computes the effective permission set for a member.
// The creator always gets the full set, overrides ignored. Everyone else
// gets their role defaults overlaid with their override field-by-field.
// Pure: no I/O, no clock, no mutation.
func ResolvePermissions(m *Member, w *SharedWallet) PermissionSet {
	if m.Role == RoleCreator {
		return defaultPermissions(RoleCreator)
	}

	set := defaultPermissions(m.Role)
	o := m.Permissions
	if o == nil {
		return set
	}

	if o.CanInviteMembers != nil {
		set.CanInviteMembers = *o.CanInviteMembers
	}
	if o.CanWithdraw != nil {
		set.CanWithdraw = *o.CanWithdraw
	}
	if o.CanManageSettings != nil {
		set.CanManageSettings = *o.CanManageSettings
	}
	if o.CanRemoveMembers != nil {
		set.CanRemoveMembers = *o.CanRemoveMembers
	}
	if o.CanViewTransactions != nil {
		set.CanViewTransactions = *o.CanViewTransactions
	}
	if o.CanFund != nil {
		set.CanFund = *o.CanFund
	}
	if o.WithdrawalLimit != nil {
		v := *o.WithdrawalLimit
		set.WithdrawalLimit = &v
	}
	if o.DailyWithdrawalLimit != nil {
		v := *o.DailyWithdrawalLimit
		set.DailyWithdrawalLimit = &v
	}
	return set
}

// Normalize enforces the quota consistency rule: an override that
// explicitly disables withdrawal sheds any quotas it carries.
func (o *PermissionOverride) Normalize() {
	if o == nil {
		return
	}
	if o.CanWithdraw != nil && !*o.CanWithdraw {
		o.WithdrawalLimit = nil
		o.DailyWithdrawalLimit = nil
	}
}

// MergeOverride folds patch into prev field-by-field: set fields in patch
// win, including explicit false; nil fields keep prev's value. The merged
// result is normalized, so previously-set quotas are cleared when the
// merge lands on CanWithdraw=false.
func MergeOverride(prev, patch *PermissionOverride) *PermissionOverride {
	if prev == nil && patch == nil {
		return nil
	}

	merged := PermissionOverride{}
	if prev != nil {
		merged = *prev
	}
	if patch != nil {
		if patch.CanInviteMembers != nil {
			merged.CanInviteMembers = patch.CanInviteMembers
		}
		if patch.CanWithdraw != nil {
			merged.CanWithdraw = patch.CanWithdraw
		}
		if patch.CanManageSettings != nil {
			merged.CanManageSettings = patch.CanManageSettings
		}
		if patch.CanRemoveMembers != nil {
			merged.CanRemoveMembers = patch.CanRemoveMembers
		}
		if patch.CanViewTransactions != nil {
			merged.CanViewTransactions = patch.CanViewTransactions
		}
		if patch.CanFund != nil {
			merged.CanFund = patch.CanFund
		}
		if patch.WithdrawalLimit != nil {
			merged.WithdrawalLimit = patch.WithdrawalLimit
		}
		if patch.DailyWithdrawalLimit != nil {
			merged.DailyWithdrawalLimit = patch.DailyWithdrawalLimit
		}
	}

	merged.Normalize()
	return &merged
}
