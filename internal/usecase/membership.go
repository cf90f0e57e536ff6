package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/covault/covault"
	"github.com/covault/covault/internal/domain"
	"github.com/covault/covault/internal/retry"
)

// errNoChange aborts an AtomicUpdate whose mutation turned out to be a
// no-op, so idempotent calls commit nothing.
var errNoChange = errors.New("no change")

type InviteFailure struct {
	UserID string `json:"userId"`
	Reason string `json:"reason"`
}

// InviteResult reports a bulk invite. Per-invitee failures are part of a
// successful result, never an operation error.
type InviteResult struct {
	Invited  int             `json:"invited"`
	Warnings []string        `json:"warnings,omitempty"`
	Failures []InviteFailure `json:"failures,omitempty"`
}

type MembershipUsecase struct {
	wallets   WalletRepository
	directory Directory
	notifier  Notifier
	signal    Signaler
	snapshots SnapshotCache
	retryOpts []retry.Option
}

func NewMembershipUsecase(
	wallets WalletRepository,
	directory Directory,
	notifier Notifier,
	signal Signaler,
	snapshots SnapshotCache,
	retryOpts ...retry.Option,
) *MembershipUsecase {
	return &MembershipUsecase{
		wallets:   wallets,
		directory: directory,
		notifier:  notifier,
		signal:    signal,
		snapshots: snapshots,
		retryOpts: retryOpts,
	}
}

type inviteCandidate struct {
	id      string
	profile covault.UserProfile
}

// Invite appends each resolvable invitee to the roster with status
// invited. Identity lookups run before the transaction so conflict
// retries never hit the directory twice. Grants are not touched here;
// they are an acceptance-time concern.
func (uc *MembershipUsecase) Invite(ctx context.Context, walletID, inviterID string, inviteeIDs []string) (*InviteResult, error) {
	result := &InviteResult{}

	candidates := make([]inviteCandidate, 0, len(inviteeIDs))
	seen := make(map[string]bool, len(inviteeIDs))
	for _, id := range inviteeIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		if !covault.IsUserID(id) {
			result.Failures = append(result.Failures, InviteFailure{UserID: id, Reason: "invalid user id"})
			continue
		}
		profile, err := uc.directory.GetUser(ctx, id)
		if err != nil {
			reason := "identity lookup failed"
			if domain.IsNotFound(err) {
				reason = "user not found"
			}
			result.Failures = append(result.Failures, InviteFailure{UserID: id, Reason: reason})
			continue
		}
		if profile.Suspended {
			result.Failures = append(result.Failures, InviteFailure{UserID: id, Reason: "user is suspended"})
			continue
		}
		if profile.Address == "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s has no payout address yet", id))
		}
		candidates = append(candidates, inviteCandidate{id: id, profile: profile})
	}

	var added []string
	var rosterFailures []InviteFailure

	wallet, err := retry.Do(ctx, "membership.invite", func(ctx context.Context) (*domain.SharedWallet, error) {
		return uc.wallets.AtomicUpdate(ctx, walletID, func(w *domain.SharedWallet) (*domain.ChangeSet, error) {
			added = added[:0]
			rosterFailures = rosterFailures[:0]

			if err := w.EnsureMutable(); err != nil {
				return nil, err
			}
			inviter, ok := w.Member(inviterID)
			if !ok {
				return nil, domain.AuthorizationError{Action: domain.ActionInvite, Reason: "not a member of this wallet"}
			}
			if d := domain.CanPerform(inviter, w, domain.ActionInvite); !d.Allowed {
				return nil, domain.AuthorizationError{Action: domain.ActionInvite, Reason: d.Reason}
			}
			if !w.IsCreator(inviterID) && !w.Settings.AllowMemberInvites {
				return nil, domain.AuthorizationError{Action: domain.ActionInvite, Reason: "member invites are disabled on this wallet"}
			}

			now := time.Now()
			toAdd := make([]domain.Member, 0, len(candidates))
			for _, c := range candidates {
				if _, exists := w.Member(c.id); exists {
					rosterFailures = append(rosterFailures, InviteFailure{UserID: c.id, Reason: "already a member"})
					continue
				}
				toAdd = append(toAdd, domain.Member{
					UserID:    c.id,
					Name:      c.profile.Name,
					Address:   c.profile.Address,
					Role:      domain.RoleMember,
					Status:    domain.StatusInvited,
					InvitedBy: inviterID,
					InvitedAt: now,
					UpdatedAt: now,
				})
			}
			if len(toAdd) == 0 {
				return nil, errNoChange
			}
			if limit := w.Settings.MaxMembers; limit != nil && len(w.Members)+len(toAdd) > *limit {
				return nil, domain.ValidationError{Message: fmt.Sprintf("wallet is limited to %d members", *limit)}
			}

			w.Members = append(w.Members, toAdd...)
			w.UpdatedAt = now
			for i := range toAdd {
				added = append(added, toAdd[i].UserID)
			}

			return &domain.ChangeSet{
				Activities: []domain.ActivityRecord{{
					WalletID:   w.ID,
					Kind:       domain.ActivityMemberInvited,
					ActorID:    inviterID,
					SubjectIDs: added,
					CreatedAt:  now,
				}},
			}, nil
		})
	}, uc.retryOpts...)

	result.Failures = append(result.Failures, rosterFailures...)
	if errors.Is(err, errNoChange) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	result.Invited = len(added)
	uc.announce(ctx, wallet, domain.ActivityMemberInvited, inviterID, added)
	for _, id := range added {
		uc.sendNotification(ctx, id,
			"Wallet invitation",
			fmt.Sprintf("You have been invited to join %s", wallet.Name),
			"wallet.invite",
			map[string]string{"walletId": wallet.ID},
		)
	}
	return result, nil
}

// Accept flips the caller's invitation to active and reconciles the
// grant list in the same transaction: the full desired set is recomputed
// from the post-acceptance roster and missing entries are added. A vault
// failure aborts the acceptance, so a member is never active without a
// grant. Accepting twice is a no-op success.
func (uc *MembershipUsecase) Accept(ctx context.Context, walletID, userID string) (*domain.SharedWallet, error) {
	var unchanged *domain.SharedWallet

	wallet, err := retry.Do(ctx, "membership.accept", func(ctx context.Context) (*domain.SharedWallet, error) {
		unchanged = nil
		return uc.wallets.AtomicUpdate(ctx, walletID, func(w *domain.SharedWallet) (*domain.ChangeSet, error) {
			m, ok := w.Member(userID)
			if !ok {
				return nil, domain.NotFoundError{Resource: "invitation"}
			}
			switch m.Status {
			case domain.StatusActive:
				unchanged = w
				return nil, errNoChange
			case domain.StatusRemoved:
				return nil, domain.AuthorizationError{Reason: "member was removed from the wallet"}
			case domain.StatusLeft:
				return nil, domain.AuthorizationError{Reason: "member has left the wallet"}
			}
			if err := w.EnsureMutable(); err != nil {
				return nil, err
			}

			now := time.Now()
			m.Status = domain.StatusActive
			m.JoinedAt = &now
			m.UpdatedAt = now
			w.UpdatedAt = now

			return &domain.ChangeSet{
				AddGrants: domain.DesiredGrants(w),
				Activities: []domain.ActivityRecord{{
					WalletID:  w.ID,
					Kind:      domain.ActivityMemberJoined,
					ActorID:   userID,
					CreatedAt: now,
				}},
			}, nil
		})
	}, uc.retryOpts...)
	if errors.Is(err, errNoChange) {
		return unchanged, nil
	}
	if err != nil {
		return nil, err
	}

	uc.announce(ctx, wallet, domain.ActivityMemberJoined, userID, userID)
	if m, ok := wallet.Member(userID); ok && m.InvitedBy != "" && m.InvitedBy != userID {
		uc.sendNotification(ctx, m.InvitedBy,
			"Invitation accepted",
			fmt.Sprintf("%s joined %s", memberLabel(m), wallet.Name),
			"wallet.member",
			map[string]string{"walletId": wallet.ID, "userId": userID},
		)
	}
	return wallet, nil
}

// Leave is the self-initiated exit. The member's grant is revoked in the
// same transaction.
func (uc *MembershipUsecase) Leave(ctx context.Context, walletID, userID string) (*domain.SharedWallet, error) {
	var unchanged *domain.SharedWallet

	wallet, err := retry.Do(ctx, "membership.leave", func(ctx context.Context) (*domain.SharedWallet, error) {
		unchanged = nil
		return uc.wallets.AtomicUpdate(ctx, walletID, func(w *domain.SharedWallet) (*domain.ChangeSet, error) {
			if w.IsCreator(userID) {
				return nil, domain.AuthorizationError{Reason: "the creator cannot leave the wallet"}
			}
			m, ok := w.Member(userID)
			if !ok {
				return nil, domain.NotFoundError{Resource: "member"}
			}
			switch m.Status {
			case domain.StatusActive:
			case domain.StatusLeft:
				unchanged = w
				return nil, errNoChange
			default:
				return nil, domain.ValidationError{Message: "only active members can leave"}
			}
			if err := w.EnsureMutable(); err != nil {
				return nil, err
			}

			now := time.Now()
			m.Status = domain.StatusLeft
			m.UpdatedAt = now
			w.UpdatedAt = now

			return &domain.ChangeSet{
				RevokeGrants: []string{userID},
				Activities: []domain.ActivityRecord{{
					WalletID:  w.ID,
					Kind:      domain.ActivityMemberLeft,
					ActorID:   userID,
					CreatedAt: now,
				}},
			}, nil
		})
	}, uc.retryOpts...)
	if errors.Is(err, errNoChange) {
		return unchanged, nil
	}
	if err != nil {
		return nil, err
	}

	uc.announce(ctx, wallet, domain.ActivityMemberLeft, userID, userID)
	m, _ := wallet.Member(userID)
	uc.sendNotification(ctx, wallet.CreatorID,
		"Member left",
		fmt.Sprintf("%s left %s", memberLabel(m), wallet.Name),
		"wallet.member",
		map[string]string{"walletId": wallet.ID, "userId": userID},
	)
	return wallet, nil
}

// Remove flips the target to removed but keeps the roster entry. The
// target's grant is revoked in the same transaction. Invited members may
// be removed too, which rescinds the invitation.
func (uc *MembershipUsecase) Remove(ctx context.Context, walletID, removerID, targetID string) (*domain.SharedWallet, error) {
	wallet, err := retry.Do(ctx, "membership.remove", func(ctx context.Context) (*domain.SharedWallet, error) {
		return uc.wallets.AtomicUpdate(ctx, walletID, func(w *domain.SharedWallet) (*domain.ChangeSet, error) {
			if err := w.EnsureMutable(); err != nil {
				return nil, err
			}
			remover, ok := w.Member(removerID)
			if !ok {
				return nil, domain.AuthorizationError{Action: domain.ActionRemoveMembers, Reason: "not a member of this wallet"}
			}
			if d := domain.CanPerform(remover, w, domain.ActionRemoveMembers); !d.Allowed {
				return nil, domain.AuthorizationError{Action: domain.ActionRemoveMembers, Reason: d.Reason}
			}
			if w.IsCreator(targetID) {
				return nil, domain.AuthorizationError{Action: domain.ActionRemoveMembers, Reason: "the creator cannot be removed"}
			}
			target, ok := w.Member(targetID)
			if !ok {
				return nil, domain.NotFoundError{Resource: "member"}
			}
			if target.Status == domain.StatusRemoved || target.Status == domain.StatusLeft {
				return nil, domain.ValidationError{Message: "member is no longer part of the wallet"}
			}

			now := time.Now()
			target.Status = domain.StatusRemoved
			target.UpdatedAt = now
			w.UpdatedAt = now

			return &domain.ChangeSet{
				RevokeGrants: []string{targetID},
				Activities: []domain.ActivityRecord{{
					WalletID:   w.ID,
					Kind:       domain.ActivityMemberRemoved,
					ActorID:    removerID,
					SubjectIDs: []string{targetID},
					CreatedAt:  now,
				}},
			}, nil
		})
	}, uc.retryOpts...)
	if err != nil {
		return nil, err
	}

	uc.announce(ctx, wallet, domain.ActivityMemberRemoved, removerID, targetID)
	uc.sendNotification(ctx, targetID,
		"Removed from wallet",
		fmt.Sprintf("You are no longer a member of %s", wallet.Name),
		"wallet.member",
		map[string]string{"walletId": wallet.ID},
	)
	return wallet, nil
}

// UpdateRole reassigns a member between admin and member. Creator-only.
// The member's permission override is cleared unless the wallet opted
// into custom permissions, in which case it is preserved and re-merged
// against the new role's defaults at read time.
func (uc *MembershipUsecase) UpdateRole(ctx context.Context, walletID, updaterID, targetID string, role domain.Role) (*domain.SharedWallet, error) {
	if role != domain.RoleAdmin && role != domain.RoleMember {
		return nil, domain.ValidationError{Message: "role must be admin or member"}
	}

	var unchanged *domain.SharedWallet
	wallet, err := retry.Do(ctx, "membership.update_role", func(ctx context.Context) (*domain.SharedWallet, error) {
		unchanged = nil
		return uc.wallets.AtomicUpdate(ctx, walletID, func(w *domain.SharedWallet) (*domain.ChangeSet, error) {
			if err := w.EnsureMutable(); err != nil {
				return nil, err
			}
			if !w.IsCreator(updaterID) {
				return nil, domain.AuthorizationError{Reason: "only the creator can change roles"}
			}
			if w.IsCreator(targetID) {
				return nil, domain.AuthorizationError{Reason: "the creator's role cannot be changed"}
			}
			target, ok := w.Member(targetID)
			if !ok {
				return nil, domain.NotFoundError{Resource: "member"}
			}
			if target.Status == domain.StatusRemoved || target.Status == domain.StatusLeft {
				return nil, domain.ValidationError{Message: "member is no longer part of the wallet"}
			}
			if target.Role == role {
				unchanged = w
				return nil, errNoChange
			}

			now := time.Now()
			prev := target.Role
			target.Role = role
			if !w.Settings.EnableCustomPermissions {
				target.Permissions = nil
			}
			target.UpdatedAt = now
			w.UpdatedAt = now

			return &domain.ChangeSet{
				Activities: []domain.ActivityRecord{{
					WalletID:   w.ID,
					Kind:       domain.ActivityRoleChanged,
					ActorID:    updaterID,
					SubjectIDs: []string{targetID},
					Note:       fmt.Sprintf("%s to %s", prev, role),
					CreatedAt:  now,
				}},
			}, nil
		})
	}, uc.retryOpts...)
	if errors.Is(err, errNoChange) {
		return unchanged, nil
	}
	if err != nil {
		return nil, err
	}

	uc.announce(ctx, wallet, domain.ActivityRoleChanged, updaterID, map[string]string{"userId": targetID, "role": string(role)})
	uc.sendNotification(ctx, targetID,
		"Role updated",
		fmt.Sprintf("Your role in %s is now %s", wallet.Name, role),
		"wallet.member",
		map[string]string{"walletId": wallet.ID, "role": string(role)},
	)
	return wallet, nil
}

// UpdatePermissions merges a partial override onto the target member.
// The updater must be the creator or an active admin; admins cannot
// retune themselves. Writing an override flips the wallet's custom
// permissions setting on so the override takes observable effect.
func (uc *MembershipUsecase) UpdatePermissions(ctx context.Context, walletID, updaterID, targetID string, patch *domain.PermissionOverride) (*domain.SharedWallet, error) {
	if patch == nil {
		return nil, domain.ValidationError{Message: "permission override required"}
	}
	patch.Normalize()

	wallet, err := retry.Do(ctx, "membership.update_permissions", func(ctx context.Context) (*domain.SharedWallet, error) {
		return uc.wallets.AtomicUpdate(ctx, walletID, func(w *domain.SharedWallet) (*domain.ChangeSet, error) {
			if err := w.EnsureMutable(); err != nil {
				return nil, err
			}
			updater, ok := w.Member(updaterID)
			if !ok {
				return nil, domain.AuthorizationError{Reason: "not a member of this wallet"}
			}
			if updater.Status != domain.StatusActive {
				return nil, domain.AuthorizationError{Reason: "not an active member"}
			}
			if updater.Role != domain.RoleCreator && updater.Role != domain.RoleAdmin {
				return nil, domain.AuthorizationError{Reason: "requires the creator or an admin"}
			}
			if w.IsCreator(targetID) {
				return nil, domain.AuthorizationError{Reason: "the creator's permissions cannot be overridden"}
			}
			if targetID == updaterID && !w.IsCreator(updaterID) {
				return nil, domain.AuthorizationError{Reason: "cannot change your own permissions"}
			}
			target, ok := w.Member(targetID)
			if !ok {
				return nil, domain.NotFoundError{Resource: "member"}
			}
			if target.Status == domain.StatusRemoved || target.Status == domain.StatusLeft {
				return nil, domain.ValidationError{Message: "member is no longer part of the wallet"}
			}

			now := time.Now()
			target.Permissions = domain.MergeOverride(target.Permissions, patch)
			w.Settings.EnableCustomPermissions = true
			target.UpdatedAt = now
			w.UpdatedAt = now

			return &domain.ChangeSet{
				Activities: []domain.ActivityRecord{{
					WalletID:   w.ID,
					Kind:       domain.ActivityPermissionsChanged,
					ActorID:    updaterID,
					SubjectIDs: []string{targetID},
					CreatedAt:  now,
				}},
			}, nil
		})
	}, uc.retryOpts...)
	if err != nil {
		return nil, err
	}

	uc.announce(ctx, wallet, domain.ActivityPermissionsChanged, updaterID, map[string]string{"userId": targetID})
	uc.sendNotification(ctx, targetID,
		"Permissions updated",
		fmt.Sprintf("Your permissions in %s were updated", wallet.Name),
		"wallet.permissions",
		map[string]string{"walletId": wallet.ID},
	)
	return wallet, nil
}

func (uc *MembershipUsecase) announce(ctx context.Context, w *domain.SharedWallet, kind, actorID string, item any) {
	announce(ctx, uc.snapshots, uc.signal, w, kind, actorID, item)
}

func (uc *MembershipUsecase) sendNotification(ctx context.Context, userID, title, body, category string, metadata map[string]string) {
	sendNotification(ctx, uc.notifier, userID, title, body, category, metadata)
}

func memberLabel(m *domain.Member) string {
	if m.Name != "" {
		return m.Name
	}
	return m.UserID
}

// announce invalidates the read-side snapshot and publishes the event to
// the wallet's channel. Publish failures are logged, never returned: the
// mutation already committed.
func announce(ctx context.Context, snapshots SnapshotCache, signal Signaler, w *domain.SharedWallet, kind, actorID string, item any) {
	snapshots.Invalidate(ctx, w.ID)

	event := covault.Event{
		WalletID:  w.ID,
		Kind:      kind,
		ActorID:   actorID,
		Item:      item,
		Timestamp: time.Now(),
	}
	if err := signal.Publish(ctx, covault.WalletChannel(w.ID), event); err != nil {
		slog.ErrorContext(ctx, "failed to publish wallet event",
			slog.String("kind", kind),
			slog.String("wallet", w.ID),
			slog.String("error", err.Error()),
			slog.String("module", "usecase"),
		)
	}
}

// sendNotification is best effort, per the notification collaborator's
// contract: failures are logged and swallowed.
func sendNotification(ctx context.Context, notifier Notifier, userID, title, body, category string, metadata map[string]string) {
	if err := notifier.Notify(ctx, userID, title, body, category, metadata); err != nil {
		slog.WarnContext(ctx, "notification delivery failed",
			slog.String("user", userID),
			slog.String("category", category),
			slog.String("error", err.Error()),
			slog.String("module", "usecase"),
		)
	}
}
