package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/localspark/marketplace-backend/internal/logger"
	"github.com/localspark/marketplace-backend/internal/types"
)

type FlagRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, flags []*types.Flag) error
	GetByProfileID(ctx context.Context, tx *gorm.DB, profileID uuid.UUID) ([]*types.Flag, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Flag, error)
	DeleteUnresolvedByProfileID(ctx context.Context, tx *gorm.DB, profileID uuid.UUID) error
}

type flagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFlagRepo(db *gorm.DB, baseLog *logger.Logger) FlagRepo {
	repoLog := baseLog.With("repo", "FlagRepo")
	return &flagRepo{db: db, log: repoLog}
}

func (fr *flagRepo) Upsert(ctx context.Context, tx *gorm.DB, flags []*types.Flag) error {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	if len(flags) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&flags).Error
}

func (fr *flagRepo) GetByProfileID(ctx context.Context, tx *gorm.DB, profileID uuid.UUID) ([]*types.Flag, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	var results []*types.Flag
	if err := transaction.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("flagged_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (fr *flagRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Flag, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	var results []*types.Flag
	if err := transaction.WithContext(ctx).
		Order("flagged_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (fr *flagRepo) DeleteUnresolvedByProfileID(ctx context.Context, tx *gorm.DB, profileID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	return transaction.WithContext(ctx).
		Where("profile_id = ? AND is_resolved = ?", profileID, false).
		Delete(&types.Flag{}).Error
}
