package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/covault/covault"
	"github.com/covault/covault/internal/domain"
	"github.com/covault/covault/internal/infra/database/models"
)

type VaultRepository struct {
	db *gorm.DB
}

func NewVaultRepository(db *gorm.DB) *VaultRepository {
	return &VaultRepository{db: db}
}

// Get returns the vault record, verifying the payload against its stored
// checksum. A mismatch means the row was corrupted somewhere below us and
// must never be served.
func (r *VaultRepository) Get(ctx context.Context, walletID string) (*domain.VaultRecord, error) {
	var row models.WalletKey
	err := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFoundError{Resource: "wallet key"}
	}
	if err != nil {
		return nil, err
	}

	record, err := vaultFromRow(&row)
	if err != nil {
		return nil, err
	}
	if !covault.VerifyChecksum(record.Payload, record.Checksum) {
		return nil, domain.UnavailableError{Collaborator: "vault", Err: errors.New("payload checksum mismatch")}
	}
	return record, nil
}

func (r *VaultRepository) Grants(ctx context.Context, walletID string) ([]domain.KeyAccessGrant, error) {
	record, err := r.Get(ctx, walletID)
	if err != nil {
		return nil, err
	}
	return record.Grants, nil
}

// Reconcile adds the missing grants. Add-only and idempotent: it never
// revokes, so re-running it is always safe.
func (r *VaultRepository) Reconcile(ctx context.Context, walletID string, add []domain.KeyAccessGrant) error {
	if len(add) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return applyGrantDelta(tx, walletID, add, nil)
	})
}

// applyGrantDelta locks the vault row and applies grant additions and
// explicit revocations. Additions are add-only (duplicates are skipped);
// revocations remove exactly the named identities. Shared by Reconcile
// and the wallet repository's ChangeSet application.
func applyGrantDelta(tx *gorm.DB, walletID string, add []domain.KeyAccessGrant, revoke []string) error {
	if len(add) == 0 && len(revoke) == 0 {
		return nil
	}

	var row models.WalletKey
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("wallet_id = ?", walletID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.UnavailableError{Collaborator: "vault", Err: err}
	}
	if err != nil {
		return err
	}

	var grants []domain.KeyAccessGrant
	if err := json.Unmarshal([]byte(row.Grants), &grants); err != nil {
		return err
	}

	have := make(map[string]bool, len(grants))
	for _, g := range grants {
		have[g.UserID] = true
	}
	for _, g := range add {
		if !have[g.UserID] {
			grants = append(grants, g)
			have[g.UserID] = true
		}
	}
	if len(revoke) > 0 {
		revoked := make(map[string]bool, len(revoke))
		for _, id := range revoke {
			revoked[id] = true
		}
		kept := grants[:0]
		for _, g := range grants {
			if !revoked[g.UserID] {
				kept = append(kept, g)
			}
		}
		grants = kept
	}

	buf, err := json.Marshal(grants)
	if err != nil {
		return err
	}
	return tx.Model(&models.WalletKey{}).
		Where("wallet_id = ?", walletID).
		Updates(map[string]any{
			"grants":   string(buf),
			"revision": row.Revision + 1,
			"m_date":   time.Now(),
		}).Error
}

func vaultToRow(v *domain.VaultRecord) (*models.WalletKey, error) {
	grants := v.Grants
	if grants == nil {
		grants = []domain.KeyAccessGrant{}
	}
	buf, err := json.Marshal(grants)
	if err != nil {
		return nil, err
	}
	return &models.WalletKey{
		WalletID: v.WalletID,
		Payload:  v.Payload,
		Checksum: v.Checksum,
		Grants:   string(buf),
	}, nil
}

func vaultFromRow(row *models.WalletKey) (*domain.VaultRecord, error) {
	var grants []domain.KeyAccessGrant
	if err := json.Unmarshal([]byte(row.Grants), &grants); err != nil {
		return nil, err
	}
	return &domain.VaultRecord{
		WalletID:  row.WalletID,
		Payload:   row.Payload,
		Checksum:  row.Checksum,
		Grants:    grants,
		Revision:  row.Revision,
		UpdatedAt: row.MDate,
	}, nil
}
