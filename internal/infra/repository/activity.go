package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/covault/covault"
	"github.com/covault/covault/internal/domain"
	"github.com/covault/covault/internal/infra/database/models"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Append(ctx context.Context, records ...domain.ActivityRecord) error {
	return appendActivities(r.db.WithContext(ctx), records)
}

func (r *ActivityRepository) ListByWallet(ctx context.Context, walletID string, limit int) ([]domain.ActivityRecord, error) {
	var rows []models.Activity
	err := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("c_date DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []domain.ActivityRecord{}, nil
		}
		return nil, err
	}

	records := make([]domain.ActivityRecord, 0, len(rows))
	for i := range rows {
		records = append(records, activityFromRow(&rows[i]))
	}
	return records, nil
}

// appendActivities inserts the records, deriving a content-hash ID when
// the caller left one unset. Inserts are OnConflict DoNothing: an append
// replayed on retry must not fail the transaction.
func appendActivities(tx *gorm.DB, records []domain.ActivityRecord) error {
	for i := range records {
		row := newActivityRow(&records[i])
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func newActivityRow(rec *domain.ActivityRecord) models.Activity {
	id := rec.ID
	if id == "" {
		seed, _ := json.Marshal(rec)
		id = covault.ContentID(seed)
	}
	return models.Activity{
		ID:         id,
		WalletID:   rec.WalletID,
		Kind:       rec.Kind,
		ActorID:    rec.ActorID,
		SubjectIDs: pq.StringArray(rec.SubjectIDs),
		Note:       rec.Note,
		Amount:     rec.Amount,
		CDate:      rec.CreatedAt,
	}
}

func activityFromRow(row *models.Activity) domain.ActivityRecord {
	return domain.ActivityRecord{
		ID:         row.ID,
		WalletID:   row.WalletID,
		Kind:       row.Kind,
		ActorID:    row.ActorID,
		SubjectIDs: []string(row.SubjectIDs),
		Note:       row.Note,
		Amount:     row.Amount,
		CreatedAt:  row.CDate,
	}
}
