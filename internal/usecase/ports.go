package usecase

import (
	"context"

	"github.com/covault/covault"
	"github.com/covault/covault/internal/domain"
)

// WalletRepository is the persistence port for the wallet aggregate.
// AtomicUpdate is optimistic read-modify-write: mutate receives the
// current aggregate inside a transaction and returns the side writes to
// commit with it; the write fails with a ConflictError when another
// writer moved the row first. An error from mutate aborts the
// transaction and is returned unchanged.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.SharedWallet, vault *domain.VaultRecord, cs *domain.ChangeSet) error
	Get(ctx context.Context, walletID string) (*domain.SharedWallet, error)
	AtomicUpdate(ctx context.Context, walletID string, mutate func(w *domain.SharedWallet) (*domain.ChangeSet, error)) (*domain.SharedWallet, error)
}

// VaultRepository is the key-access store port.
type VaultRepository interface {
	Get(ctx context.Context, walletID string) (*domain.VaultRecord, error)
	Grants(ctx context.Context, walletID string) ([]domain.KeyAccessGrant, error)
	Reconcile(ctx context.Context, walletID string, add []domain.KeyAccessGrant) error
}

// ActivityRepository is the append-only audit log port.
type ActivityRepository interface {
	Append(ctx context.Context, records ...domain.ActivityRecord) error
	ListByWallet(ctx context.Context, walletID string, limit int) ([]domain.ActivityRecord, error)
}

// Directory resolves user identities and payout addresses.
type Directory interface {
	GetUser(ctx context.Context, userID string) (covault.UserProfile, error)
}

// Notifier delivers per-user notifications. Best effort: callers log and
// swallow failures.
type Notifier interface {
	Notify(ctx context.Context, userID, title, body, category string, metadata map[string]string) error
}

// Signaler publishes realtime events to pub/sub channels.
type Signaler interface {
	Publish(ctx context.Context, channel string, event covault.Event) error
}

// SnapshotCache holds short-lived wallet snapshots for the read side.
type SnapshotCache interface {
	Get(ctx context.Context, walletID string) (*domain.SharedWallet, bool)
	Set(ctx context.Context, wallet *domain.SharedWallet)
	Invalidate(ctx context.Context, walletID string)
}
