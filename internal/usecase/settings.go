package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/covault/covault/internal/domain"
	"github.com/covault/covault/internal/retry"
)

// SettingsPatch is a partial update of the wallet-wide settings. Nil
// fields leave the prior value untouched; MaxMembers=0 clears the cap.
type SettingsPatch struct {
	AllowMemberInvites            *bool             `json:"allowMemberInvites,omitempty"`
	RequireApprovalForWithdrawals *bool             `json:"requireApprovalForWithdrawals,omitempty"`
	MaxMembers                    *int              `json:"maxMembers,omitempty"`
	AutoTopUp                     *domain.AutoTopUp `json:"autoTopUp,omitempty"`
	ClearAutoTopUp                bool              `json:"clearAutoTopUp,omitempty"`
	EnableCustomPermissions       *bool             `json:"enableCustomPermissions,omitempty"`
}

// WalletPatch is a partial update of the wallet's presentation fields,
// status and settings. Status may only move between active and paused;
// archival has its own operation and is terminal.
type WalletPatch struct {
	Name        *string              `json:"name,omitempty"`
	CustomColor *string              `json:"customColor,omitempty"`
	CustomLogo  *string              `json:"customLogo,omitempty"`
	Status      *domain.WalletStatus `json:"status,omitempty"`
	Settings    *SettingsPatch       `json:"settings,omitempty"`
}

type SettingsUsecase struct {
	wallets   WalletRepository
	signal    Signaler
	snapshots SnapshotCache
	retryOpts []retry.Option
}

func NewSettingsUsecase(
	wallets WalletRepository,
	signal Signaler,
	snapshots SnapshotCache,
	retryOpts ...retry.Option,
) *SettingsUsecase {
	return &SettingsUsecase{
		wallets:   wallets,
		signal:    signal,
		snapshots: snapshots,
		retryOpts: retryOpts,
	}
}

// UpdateWallet applies the patch. Creator-only; when the request context
// carries an authenticated principal, the caller-asserted identity must
// match it. UpdatedAt is bumped even when no visible field changed so
// live subscribers observe the touch.
func (uc *SettingsUsecase) UpdateWallet(ctx context.Context, walletID, callerID string, patch WalletPatch) (*domain.SharedWallet, error) {
	if err := validateWalletPatch(patch); err != nil {
		return nil, err
	}
	if principal, ok := domain.PrincipalFromContext(ctx); ok && principal != callerID {
		return nil, domain.AuthorizationError{Reason: "caller identity does not match the authenticated principal"}
	}

	wallet, err := retry.Do(ctx, "settings.update", func(ctx context.Context) (*domain.SharedWallet, error) {
		return uc.wallets.AtomicUpdate(ctx, walletID, func(w *domain.SharedWallet) (*domain.ChangeSet, error) {
			if err := w.EnsureMutable(); err != nil {
				return nil, err
			}
			if !w.IsCreator(callerID) {
				return nil, domain.AuthorizationError{Action: domain.ActionManageSettings, Reason: "only the creator can update the wallet"}
			}

			now := time.Now()
			if patch.Name != nil {
				w.Name = *patch.Name
			}
			if patch.CustomColor != nil {
				w.CustomColor = *patch.CustomColor
			}
			if patch.CustomLogo != nil {
				w.CustomLogo = *patch.CustomLogo
			}
			if patch.Status != nil {
				w.Status = *patch.Status
			}
			if patch.Settings != nil {
				applySettingsPatch(&w.Settings, patch.Settings)
			}
			w.UpdatedAt = now

			return &domain.ChangeSet{
				Activities: []domain.ActivityRecord{{
					WalletID:  w.ID,
					Kind:      domain.ActivityWalletUpdated,
					ActorID:   callerID,
					CreatedAt: now,
				}},
			}, nil
		})
	}, uc.retryOpts...)
	if err != nil {
		return nil, err
	}

	announce(ctx, uc.snapshots, uc.signal, wallet, domain.ActivityWalletUpdated, callerID, nil)
	return wallet, nil
}

// Archive is the terminal lifecycle transition. Creator-only and
// idempotent.
func (uc *SettingsUsecase) Archive(ctx context.Context, walletID, callerID string) (*domain.SharedWallet, error) {
	if principal, ok := domain.PrincipalFromContext(ctx); ok && principal != callerID {
		return nil, domain.AuthorizationError{Reason: "caller identity does not match the authenticated principal"}
	}

	var unchanged *domain.SharedWallet
	wallet, err := retry.Do(ctx, "settings.archive", func(ctx context.Context) (*domain.SharedWallet, error) {
		unchanged = nil
		return uc.wallets.AtomicUpdate(ctx, walletID, func(w *domain.SharedWallet) (*domain.ChangeSet, error) {
			if !w.IsCreator(callerID) {
				return nil, domain.AuthorizationError{Reason: "only the creator can archive the wallet"}
			}
			if w.Status == domain.WalletArchived {
				unchanged = w
				return nil, errNoChange
			}

			now := time.Now()
			w.Status = domain.WalletArchived
			w.UpdatedAt = now

			return &domain.ChangeSet{
				Activities: []domain.ActivityRecord{{
					WalletID:  w.ID,
					Kind:      domain.ActivityWalletArchived,
					ActorID:   callerID,
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

	announce(ctx, uc.snapshots, uc.signal, wallet, domain.ActivityWalletArchived, callerID, nil)
	return wallet, nil
}

func validateWalletPatch(patch WalletPatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return domain.ValidationError{Message: "name must not be empty"}
	}
	if patch.Status != nil && *patch.Status != domain.WalletActive && *patch.Status != domain.WalletPaused {
		return domain.ValidationError{Message: "status must be active or paused"}
	}
	if s := patch.Settings; s != nil {
		if s.MaxMembers != nil && *s.MaxMembers < 0 {
			return domain.ValidationError{Message: "maxMembers must not be negative"}
		}
		if s.AutoTopUp != nil && s.ClearAutoTopUp {
			return domain.ValidationError{Message: "cannot set and clear auto top-up in the same update"}
		}
		if s.AutoTopUp != nil && (!s.AutoTopUp.Threshold.IsPositive() || !s.AutoTopUp.Amount.IsPositive()) {
			return domain.ValidationError{Message: "auto top-up threshold and amount must be positive"}
		}
	}
	return nil
}

func applySettingsPatch(s *domain.Settings, patch *SettingsPatch) {
	if patch.AllowMemberInvites != nil {
		s.AllowMemberInvites = *patch.AllowMemberInvites
	}
	if patch.RequireApprovalForWithdrawals != nil {
		s.RequireApprovalForWithdrawals = *patch.RequireApprovalForWithdrawals
	}
	if patch.MaxMembers != nil {
		if *patch.MaxMembers == 0 {
			s.MaxMembers = nil
		} else {
			v := *patch.MaxMembers
			s.MaxMembers = &v
		}
	}
	if patch.AutoTopUp != nil {
		v := *patch.AutoTopUp
		s.AutoTopUp = &v
	}
	if patch.ClearAutoTopUp {
		s.AutoTopUp = nil
	}
	if patch.EnableCustomPermissions != nil {
		s.EnableCustomPermissions = *patch.EnableCustomPermissions
	}
}
