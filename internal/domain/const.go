package domain

import "context"

const (
	PrincipalCtxKey = "cv-principal"
)

// PrincipalFromContext returns the authenticated identity the auth
// middleware stored on the request context, if any.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(PrincipalCtxKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

type Role string

const (
	RoleCreator Role = "creator"
	RoleAdmin   Role = "admin"
	RoleMember  Role = "member"
)

// ParseRole accepts the roles assignable through the membership mutator.
// The creator role is fixed at wallet creation and never assignable.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleMember:
		return Role(s), true
	}
	return "", false
}

type MemberStatus string

const (
	StatusActive  MemberStatus = "active"
	StatusInvited MemberStatus = "invited"
	StatusRemoved MemberStatus = "removed"
	StatusLeft    MemberStatus = "left"
)

type WalletStatus string

const (
	WalletActive   WalletStatus = "active"
	WalletPaused   WalletStatus = "paused"
	WalletArchived WalletStatus = "archived"
)

type Action string

const (
	ActionInvite           Action = "invite"
	ActionWithdraw         Action = "withdraw"
	ActionManageSettings   Action = "manageSettings"
	ActionRemoveMembers    Action = "removeMembers"
	ActionViewTransactions Action = "viewTransactions"
	ActionFund             Action = "fund"
)

// ParseAction accepts the actions the authorization gate evaluates.
func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionInvite, ActionWithdraw, ActionManageSettings,
		ActionRemoveMembers, ActionViewTransactions, ActionFund:
		return Action(s), true
	}
	return "", false
}

// Activity kinds double as realtime event kinds.
const (
	ActivityWalletCreated      = "wallet.created"
	ActivityWalletArchived     = "wallet.archived"
	ActivityWalletUpdated      = "wallet.updated"
	ActivityWalletFunded       = "wallet.funded"
	ActivityWalletWithdrawn    = "wallet.withdrawn"
	ActivityMemberInvited      = "member.invited"
	ActivityMemberJoined       = "member.joined"
	ActivityMemberRemoved      = "member.removed"
	ActivityMemberLeft         = "member.left"
	ActivityRoleChanged        = "member.role_changed"
	ActivityPermissionsChanged = "member.permissions_changed"
)
