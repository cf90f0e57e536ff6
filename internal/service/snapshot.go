package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/covault/covault/internal/domain"
	"github.com/covault/covault/internal/usecase"
)

// snapshotTTL is short on purpose: snapshots only shave load off the read
// path, every mutation invalidates them anyway.
const snapshotTTL = 10 // seconds

type SnapshotService struct {
	mc *memcache.Client
}

func NewSnapshotService(mc *memcache.Client) *SnapshotService {
	return &SnapshotService{
		mc: mc,
	}
}

func snapshotKey(walletID string) string {
	return "wallet:snapshot:" + walletID
}

func (s *SnapshotService) Get(ctx context.Context, walletID string) (*domain.SharedWallet, bool) {
	item, err := s.mc.Get(snapshotKey(walletID))
	if err != nil {
		if !errors.Is(err, memcache.ErrCacheMiss) {
			slog.ErrorContext(
				ctx, "Failed to read wallet snapshot",
				slog.String("error", err.Error()),
				slog.String("module", "snapshot"),
			)
		}
		return nil, false
	}

	var wallet domain.SharedWallet
	err = json.Unmarshal(item.Value, &wallet)
	if err != nil {
		slog.ErrorContext(
			ctx, "Failed to unmarshal wallet snapshot",
			slog.String("error", err.Error()),
			slog.String("module", "snapshot"),
		)
		return nil, false
	}

	return &wallet, true
}

func (s *SnapshotService) Set(ctx context.Context, wallet *domain.SharedWallet) {
	if wallet == nil {
		return
	}

	value, err := json.Marshal(wallet)
	if err != nil {
		return
	}

	err = s.mc.Set(&memcache.Item{
		Key:        snapshotKey(wallet.ID),
		Value:      value,
		Expiration: snapshotTTL,
	})
	if err != nil {
		slog.ErrorContext(
			ctx, "Failed to store wallet snapshot",
			slog.String("error", err.Error()),
			slog.String("module", "snapshot"),
		)
	}
}

func (s *SnapshotService) Invalidate(ctx context.Context, walletID string) {
	err := s.mc.Delete(snapshotKey(walletID))
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		slog.ErrorContext(
			ctx, "Failed to drop wallet snapshot",
			slog.String("error", err.Error()),
			slog.String("module", "snapshot"),
		)
	}
}

var _ usecase.SnapshotCache = (*SnapshotService)(nil)
