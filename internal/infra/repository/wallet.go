package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/covault/covault/internal/domain"
	"github.com/covault/covault/internal/infra/database/models"
)

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Create persists the wallet, its vault row and the creation activities
// in one transaction.
func (r *WalletRepository) Create(ctx context.Context, wallet *domain.SharedWallet, vault *domain.VaultRecord, cs *domain.ChangeSet) error {
	row, err := walletToRow(wallet)
	if err != nil {
		return err
	}
	keyRow, err := vaultToRow(vault)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ConflictError{Resource: "wallet"}
			}
			return err
		}
		if err := tx.Create(keyRow).Error; err != nil {
			return err
		}
		if cs != nil {
			if err := appendActivities(tx, cs.Activities); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *WalletRepository) Get(ctx context.Context, walletID string) (*domain.SharedWallet, error) {
	var row models.Wallet
	err := r.db.WithContext(ctx).
		Where("id = ?", walletID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFoundError{Resource: "wallet"}
	}
	if err != nil {
		return nil, err
	}
	return walletFromRow(&row)
}

// AtomicUpdate loads the wallet, runs mutate against the domain form and
// writes it back guarded by the revision it was read at. A concurrent
// writer makes the guard miss, which surfaces as a ConflictError for the
// caller's retrier. Grant deltas and activity appends from the ChangeSet
// commit in the same transaction, so the roster and the grant list can
// never diverge past a commit point.
func (r *WalletRepository) AtomicUpdate(ctx context.Context, walletID string, mutate func(w *domain.SharedWallet) (*domain.ChangeSet, error)) (*domain.SharedWallet, error) {
	var updated *domain.SharedWallet

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Wallet
		err := tx.Where("id = ?", walletID).Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NotFoundError{Resource: "wallet"}
		}
		if err != nil {
			return err
		}

		wallet, err := walletFromRow(&row)
		if err != nil {
			return err
		}

		cs, err := mutate(wallet)
		if err != nil {
			return err
		}

		wallet.Revision = row.Revision + 1
		next, err := walletToRow(wallet)
		if err != nil {
			return err
		}

		res := tx.Model(&models.Wallet{}).
			Where("id = ? AND revision = ?", walletID, row.Revision).
			Updates(map[string]any{
				"name":          next.Name,
				"total_balance": next.TotalBalance,
				"status":        next.Status,
				"members":       next.Members,
				"settings":      next.Settings,
				"custom_color":  next.CustomColor,
				"custom_logo":   next.CustomLogo,
				"revision":      next.Revision,
				"m_date":        next.MDate,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ConflictError{Resource: "wallet"}
		}

		if cs != nil {
			if err := applyGrantDelta(tx, walletID, cs.AddGrants, cs.RevokeGrants); err != nil {
				return err
			}
			if err := appendActivities(tx, cs.Activities); err != nil {
				return err
			}
		}

		updated = wallet
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func walletToRow(w *domain.SharedWallet) (*models.Wallet, error) {
	members, err := json.Marshal(w.Members)
	if err != nil {
		return nil, err
	}
	settings, err := json.Marshal(w.Settings)
	if err != nil {
		return nil, err
	}

	mdate := w.UpdatedAt
	if mdate.IsZero() {
		mdate = time.Now()
	}

	return &models.Wallet{
		ID:           w.ID,
		Name:         w.Name,
		CreatorID:    w.CreatorID,
		Address:      w.Address,
		TotalBalance: w.TotalBalance,
		CurrencyCode: w.CurrencyCode,
		Status:       string(w.Status),
		Members:      string(members),
		Settings:     string(settings),
		CustomColor:  w.CustomColor,
		CustomLogo:   w.CustomLogo,
		Revision:     w.Revision,
		CDate:        w.CreatedAt,
		MDate:        mdate,
	}, nil
}

func walletFromRow(row *models.Wallet) (*domain.SharedWallet, error) {
	var members []domain.Member
	if err := json.Unmarshal([]byte(row.Members), &members); err != nil {
		return nil, err
	}
	var settings domain.Settings
	if err := json.Unmarshal([]byte(row.Settings), &settings); err != nil {
		return nil, err
	}

	return &domain.SharedWallet{
		ID:           row.ID,
		Name:         row.Name,
		CreatorID:    row.CreatorID,
		Address:      row.Address,
		TotalBalance: row.TotalBalance,
		CurrencyCode: row.CurrencyCode,
		Status:       domain.WalletStatus(row.Status),
		Members:      members,
		Settings:     settings,
		CustomColor:  row.CustomColor,
		CustomLogo:   row.CustomLogo,
		Revision:     row.Revision,
		CreatedAt:    row.CDate,
		UpdatedAt:    row.MDate,
	}, nil
}
