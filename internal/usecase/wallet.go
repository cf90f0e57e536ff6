package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/covault/covault"
	"github.com/covault/covault/internal/domain"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// CreateWalletInput carries everything needed to open a shared wallet.
// KeyPayload is the client-encrypted key material; this engine stores it
// opaquely and never interprets it.
type CreateWalletInput struct {
	Name         string         `json:"name"`
	CreatorID    string         `json:"creatorId"`
	Address      string         `json:"address"`
	CurrencyCode string         `json:"currencyCode"`
	KeyPayload   []byte         `json:"keyPayload"`
	CustomColor  string         `json:"customColor,omitempty"`
	CustomLogo   string         `json:"customLogo,omitempty"`
	Settings     *SettingsPatch `json:"settings,omitempty"`
}

type WalletUsecase struct {
	wallets           WalletRepository
	vault             VaultRepository
	activities        ActivityRepository
	directory         Directory
	signal            Signaler
	snapshots         SnapshotCache
	defaultMaxMembers int
}

func NewWalletUsecase(
	wallets WalletRepository,
	vault VaultRepository,
	activities ActivityRepository,
	directory Directory,
	signal Signaler,
	snapshots SnapshotCache,
	defaultMaxMembers int,
) *WalletUsecase {
	return &WalletUsecase{
		wallets:           wallets,
		vault:             vault,
		activities:        activities,
		directory:         directory,
		signal:            signal,
		snapshots:         snapshots,
		defaultMaxMembers: defaultMaxMembers,
	}
}

// Create persists the wallet, its vault record and the creation activity
// in one transaction. The creator is the sole active member and holds
// the only key grant.
func (uc *WalletUsecase) Create(ctx context.Context, input CreateWalletInput) (*domain.SharedWallet, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ValidationError{Message: "name is required"}
	}
	if !covault.IsUserID(input.CreatorID) {
		return nil, domain.ValidationError{Message: "creatorId must be a valid user id"}
	}
	if !common.IsHexAddress(input.Address) {
		return nil, domain.ValidationError{Message: "address must be a hex chain address"}
	}
	currency := strings.ToUpper(strings.TrimSpace(input.CurrencyCode))
	if currency == "" {
		return nil, domain.ValidationError{Message: "currencyCode is required"}
	}
	if len(input.KeyPayload) == 0 {
		return nil, domain.ValidationError{Message: "keyPayload is required"}
	}
	if input.Settings != nil {
		if err := validateWalletPatch(WalletPatch{Settings: input.Settings}); err != nil {
			return nil, err
		}
	}
	if principal, ok := domain.PrincipalFromContext(ctx); ok && principal != input.CreatorID {
		return nil, domain.AuthorizationError{Reason: "caller identity does not match the authenticated principal"}
	}

	// The profile lookup is soft: a directory outage must not block
	// wallet creation.
	var creatorName, creatorAddr string
	if profile, err := uc.directory.GetUser(ctx, input.CreatorID); err == nil {
		creatorName = profile.Name
		creatorAddr = profile.Address
	} else {
		slog.WarnContext(ctx, "creator profile lookup failed",
			slog.String("user", input.CreatorID),
			slog.String("error", err.Error()),
			slog.String("module", "usecase"),
		)
	}

	now := time.Now()
	walletID, err := covault.NewWalletID(input.CreatorID, name, now)
	if err != nil {
		return nil, err
	}

	settings := domain.Settings{}
	if uc.defaultMaxMembers > 0 {
		v := uc.defaultMaxMembers
		settings.MaxMembers = &v
	}
	if input.Settings != nil {
		applySettingsPatch(&settings, input.Settings)
	}

	wallet := &domain.SharedWallet{
		ID:           walletID,
		Name:         name,
		CreatorID:    input.CreatorID,
		Address:      input.Address,
		TotalBalance: decimal.Zero,
		CurrencyCode: currency,
		Status:       domain.WalletActive,
		Members: []domain.Member{{
			UserID:    input.CreatorID,
			Name:      creatorName,
			Address:   creatorAddr,
			Role:      domain.RoleCreator,
			Status:    domain.StatusActive,
			InvitedAt: now,
			JoinedAt:  &now,
			UpdatedAt: now,
		}},
		Settings:    settings,
		CustomColor: input.CustomColor,
		CustomLogo:  input.CustomLogo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	vault := &domain.VaultRecord{
		WalletID: wallet.ID,
		Payload:  input.KeyPayload,
		Checksum: covault.Checksum(input.KeyPayload),
		Grants:   domain.DesiredGrants(wallet),
	}

	cs := &domain.ChangeSet{
		Activities: []domain.ActivityRecord{{
			WalletID:  wallet.ID,
			Kind:      domain.ActivityWalletCreated,
			ActorID:   input.CreatorID,
			CreatedAt: now,
		}},
	}

	if err := uc.wallets.Create(ctx, wallet, vault, cs); err != nil {
		return nil, err
	}

	announce(ctx, uc.snapshots, uc.signal, wallet, domain.ActivityWalletCreated, input.CreatorID, nil)
	return wallet, nil
}

// Get returns the wallet to its roster members. Removed and departed
// members are denied.
func (uc *WalletUsecase) Get(ctx context.Context, walletID, requesterID string) (*domain.SharedWallet, error) {
	w, err := uc.loadWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}

	m, ok := w.Member(requesterID)
	if !ok || (m.Status != domain.StatusActive && m.Status != domain.StatusInvited) {
		return nil, domain.AuthorizationError{Reason: "not a member of this wallet"}
	}
	return w, nil
}

// History lists the wallet's activity, newest first, gated by the
// viewTransactions capability.
func (uc *WalletUsecase) History(ctx context.Context, walletID, requesterID string, limit int) ([]domain.ActivityRecord, error) {
	w, err := uc.loadWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}

	m, ok := w.Member(requesterID)
	if !ok {
		return nil, domain.AuthorizationError{Action: domain.ActionViewTransactions, Reason: "not a member of this wallet"}
	}
	if d := domain.CanPerform(m, w, domain.ActionViewTransactions); !d.Allowed {
		return nil, domain.AuthorizationError{Action: domain.ActionViewTransactions, Reason: d.Reason}
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return uc.activities.ListByWallet(ctx, walletID, limit)
}

// Key returns the vault record to members on the grant list. An active
// member missing a grant means the roster and the vault diverged; the
// read path heals that add-only and reports it, so a member is never
// silently locked out of the key.
func (uc *WalletUsecase) Key(ctx context.Context, walletID, requesterID string) (*domain.VaultRecord, error) {
	record, err := uc.vault.Get(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if record.HasGrant(requesterID) {
		return record, nil
	}

	w, err := uc.loadWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}
	m, ok := w.Member(requesterID)
	if !ok || m.Status != domain.StatusActive {
		return nil, domain.AuthorizationError{Reason: "no key access granted"}
	}

	missing := domain.MissingGrants(w, record.Grants)
	slog.WarnContext(ctx, "grant list diverged from the roster",
		slog.String("wallet", walletID),
		slog.String("user", requesterID),
		slog.Int("missing", len(missing)),
		slog.String("module", "usecase"),
	)
	if err := uc.vault.Reconcile(ctx, walletID, missing); err != nil {
		return nil, err
	}
	return uc.vault.Get(ctx, walletID)
}

// CanPerform answers the speculative gate query. A denial is a normal
// result, not an error.
func (uc *WalletUsecase) CanPerform(ctx context.Context, walletID, userID string, action domain.Action) (domain.Decision, error) {
	w, err := uc.loadWallet(ctx, walletID)
	if err != nil {
		return domain.Decision{}, err
	}
	m, ok := w.Member(userID)
	if !ok {
		return domain.Decision{Reason: "not a member of this wallet"}, nil
	}
	return domain.CanPerform(m, w, action), nil
}

// CanWithdraw answers the quota-aware withdrawal gate query.
func (uc *WalletUsecase) CanWithdraw(ctx context.Context, walletID, userID string, amount decimal.Decimal) (domain.Decision, error) {
	w, err := uc.loadWallet(ctx, walletID)
	if err != nil {
		return domain.Decision{}, err
	}
	m, ok := w.Member(userID)
	if !ok {
		return domain.Decision{Reason: "not a member of this wallet"}, nil
	}
	return domain.CanWithdrawAmount(m, w, amount, time.Now()), nil
}

func (uc *WalletUsecase) loadWallet(ctx context.Context, walletID string) (*domain.SharedWallet, error) {
	if w, ok := uc.snapshots.Get(ctx, walletID); ok {
		return w, nil
	}
	w, err := uc.wallets.Get(ctx, walletID)
	if err != nil {
		return nil, err
	}
	uc.snapshots.Set(ctx, w)
	return w, nil
}
