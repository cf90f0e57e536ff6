package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/covault/covault"
	"github.com/covault/covault/internal/domain"
	"github.com/covault/covault/internal/retry"
)

func mustUserID(b byte) string {
	var payload [20]byte
	payload[0] = b
	id, err := covault.EncodeID(covault.UserPrefix, payload)
	if err != nil {
		panic(err)
	}
	return id
}

var (
	creatorID = mustUserID(0x01)
	adminID   = mustUserID(0x02)
	memberID  = mustUserID(0x03)
	pendingID = mustUserID(0x04)
	outsideID = mustUserID(0x05)
)

func zeroBackoff() []retry.Option {
	return []retry.Option{retry.WithBackOff(&backoff.ZeroBackOff{})}
}

func cloneWallet(w *domain.SharedWallet) *domain.SharedWallet {
	b, err := json.Marshal(w)
	if err != nil {
		panic(err)
	}
	var out domain.SharedWallet
	if err := json.Unmarshal(b, &out); err != nil {
		panic(err)
	}
	return &out
}

// seedWallet builds the standard fixture: creator, one admin, one active
// member, one pending invitation.
func seedWallet() *domain.SharedWallet {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	return &domain.SharedWallet{
		ID:           "cvw1testwallet",
		Name:         "trip fund",
		CreatorID:    creatorID,
		Address:      "0x00000000000000000000000000000000000000aa",
		CurrencyCode: "USDC",
		Status:       domain.WalletActive,
		Members: []domain.Member{
			{UserID: creatorID, Name: "casey", Role: domain.RoleCreator, Status: domain.StatusActive, InvitedAt: now, JoinedAt: &now, UpdatedAt: now},
			{UserID: adminID, Name: "avery", Role: domain.RoleAdmin, Status: domain.StatusActive, InvitedBy: creatorID, InvitedAt: now, JoinedAt: &now, UpdatedAt: now},
			{UserID: memberID, Name: "morgan", Role: domain.RoleMember, Status: domain.StatusActive, InvitedBy: creatorID, InvitedAt: now, JoinedAt: &now, UpdatedAt: now},
			{UserID: pendingID, Name: "riley", Role: domain.RoleMember, Status: domain.StatusInvited, InvitedBy: creatorID, InvitedAt: now, UpdatedAt: now},
		},
		Settings:  domain.Settings{AllowMemberInvites: true},
		Revision:  3,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func seedVault(w *domain.SharedWallet) *domain.VaultRecord {
	payload := []byte("encrypted-key-material")
	return &domain.VaultRecord{
		WalletID: w.ID,
		Payload:  payload,
		Checksum: covault.Checksum(payload),
		Grants:   domain.DesiredGrants(w),
	}
}

// mockWalletRepo applies ChangeSets the way the real repository does:
// mutate runs against a copy, grants merge add-only, revokes are
// explicit, activities append, and nothing sticks when the transaction
// aborts. conflictsLeft injects optimistic conflicts after mutate ran.
type mockWalletRepo struct {
	wallet        *domain.SharedWallet
	vault         *domain.VaultRecord
	activities    []domain.ActivityRecord
	conflictsLeft int
	vaultErr      error
	createErr     error
	gets          int
	commits       int
}

func (r *mockWalletRepo) Create(ctx context.Context, wallet *domain.SharedWallet, vault *domain.VaultRecord, cs *domain.ChangeSet) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.wallet = cloneWallet(wallet)
	r.vault = &domain.VaultRecord{
		WalletID: vault.WalletID,
		Payload:  append([]byte(nil), vault.Payload...),
		Checksum: append([]byte(nil), vault.Checksum...),
		Grants:   append([]domain.KeyAccessGrant(nil), vault.Grants...),
	}
	if cs != nil {
		r.activities = append(r.activities, cs.Activities...)
	}
	r.commits++
	return nil
}

func (r *mockWalletRepo) Get(ctx context.Context, walletID string) (*domain.SharedWallet, error) {
	r.gets++
	if r.wallet == nil || r.wallet.ID != walletID {
		return nil, domain.NotFoundError{Resource: "wallet"}
	}
	return cloneWallet(r.wallet), nil
}

func (r *mockWalletRepo) AtomicUpdate(ctx context.Context, walletID string, mutate func(w *domain.SharedWallet) (*domain.ChangeSet, error)) (*domain.SharedWallet, error) {
	if r.wallet == nil || r.wallet.ID != walletID {
		return nil, domain.NotFoundError{Resource: "wallet"}
	}

	work := cloneWallet(r.wallet)
	cs, err := mutate(work)
	if err != nil {
		return nil, err
	}
	if r.conflictsLeft > 0 {
		r.conflictsLeft--
		return nil, domain.ConflictError{Resource: "wallet"}
	}

	if cs != nil && (len(cs.AddGrants) > 0 || len(cs.RevokeGrants) > 0) {
		if r.vaultErr != nil {
			return nil, r.vaultErr
		}
		if r.vault == nil {
			return nil, domain.UnavailableError{Collaborator: "vault"}
		}
		for _, g := range cs.AddGrants {
			if !r.vault.HasGrant(g.UserID) {
				r.vault.Grants = append(r.vault.Grants, g)
			}
		}
		if len(cs.RevokeGrants) > 0 {
			revoked := make(map[string]bool, len(cs.RevokeGrants))
			for _, id := range cs.RevokeGrants {
				revoked[id] = true
			}
			kept := r.vault.Grants[:0]
			for _, g := range r.vault.Grants {
				if !revoked[g.UserID] {
					kept = append(kept, g)
				}
			}
			r.vault.Grants = kept
		}
	}

	work.Revision++
	r.wallet = work
	r.commits++
	if cs != nil {
		r.activities = append(r.activities, cs.Activities...)
	}
	return cloneWallet(r.wallet), nil
}

type mockDirectory struct {
	users map[string]covault.UserProfile
	errs  map[string]error
	calls []string
}

func (d *mockDirectory) GetUser(ctx context.Context, userID string) (covault.UserProfile, error) {
	d.calls = append(d.calls, userID)
	if err, ok := d.errs[userID]; ok {
		return covault.UserProfile{}, err
	}
	if p, ok := d.users[userID]; ok {
		return p, nil
	}
	return covault.UserProfile{}, domain.NotFoundError{Resource: "user"}
}

type sentNotification struct {
	UserID   string
	Title    string
	Body     string
	Category string
	Metadata map[string]string
}

type mockNotifier struct {
	sent []sentNotification
	err  error
}

func (n *mockNotifier) Notify(ctx context.Context, userID, title, body, category string, metadata map[string]string) error {
	n.sent = append(n.sent, sentNotification{UserID: userID, Title: title, Body: body, Category: category, Metadata: metadata})
	return n.err
}

type publishedEvent struct {
	Channel string
	Event   covault.Event
}

type mockSignaler struct {
	events []publishedEvent
	err    error
}

func (s *mockSignaler) Publish(ctx context.Context, channel string, event covault.Event) error {
	s.events = append(s.events, publishedEvent{Channel: channel, Event: event})
	return s.err
}

type mockSnapshots struct {
	store       map[string]*domain.SharedWallet
	invalidated []string
	hits        int
	sets        int
}

func (c *mockSnapshots) Get(ctx context.Context, walletID string) (*domain.SharedWallet, bool) {
	w, ok := c.store[walletID]
	if ok {
		c.hits++
	}
	return w, ok
}

func (c *mockSnapshots) Set(ctx context.Context, wallet *domain.SharedWallet) {
	if c.store == nil {
		c.store = map[string]*domain.SharedWallet{}
	}
	c.store[wallet.ID] = wallet
	c.sets++
}

func (c *mockSnapshots) Invalidate(ctx context.Context, walletID string) {
	delete(c.store, walletID)
	c.invalidated = append(c.invalidated, walletID)
}

type mockVaultRepo struct {
	record *domain.VaultRecord
	err    error
}

func (v *mockVaultRepo) Get(ctx context.Context, walletID string) (*domain.VaultRecord, error) {
	if v.err != nil {
		return nil, v.err
	}
	if v.record == nil || v.record.WalletID != walletID {
		return nil, domain.NotFoundError{Resource: "wallet key"}
	}
	return v.record, nil
}

func (v *mockVaultRepo) Grants(ctx context.Context, walletID string) ([]domain.KeyAccessGrant, error) {
	rec, err := v.Get(ctx, walletID)
	if err != nil {
		return nil, err
	}
	return rec.Grants, nil
}

func (v *mockVaultRepo) Reconcile(ctx context.Context, walletID string, add []domain.KeyAccessGrant) error {
	rec, err := v.Get(ctx, walletID)
	if err != nil {
		return err
	}
	for _, g := range add {
		if !rec.HasGrant(g.UserID) {
			rec.Grants = append(rec.Grants, g)
		}
	}
	return nil
}

type mockActivityRepo struct {
	records   []domain.ActivityRecord
	listErr   error
	lastLimit int
}

func (a *mockActivityRepo) Append(ctx context.Context, records ...domain.ActivityRecord) error {
	a.records = append(a.records, records...)
	return nil
}

func (a *mockActivityRepo) ListByWallet(ctx context.Context, walletID string, limit int) ([]domain.ActivityRecord, error) {
	a.lastLimit = limit
	if a.listErr != nil {
		return nil, a.listErr
	}
	out := []domain.ActivityRecord{}
	for i := len(a.records) - 1; i >= 0 && len(out) < limit; i-- {
		if a.records[i].WalletID == walletID {
			out = append(out, a.records[i])
		}
	}
	return out, nil
}
