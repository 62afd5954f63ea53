package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/localspark/marketplace-backend/internal/logger"
	"github.com/localspark/marketplace-backend/internal/types"
)

type ViewMetricRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, metrics []*types.ViewMetric) error
	GetByProfileID(ctx context.Context, tx *gorm.DB, profileID uuid.UUID) (*types.ViewMetric, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.ViewMetric, error)
	Delete(ctx context.Context, tx *gorm.DB, profileID uuid.UUID) error
}

type viewMetricRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewViewMetricRepo(db *gorm.DB, baseLog *logger.Logger) ViewMetricRepo {
	repoLog := baseLog.With("repo", "ViewMetricRepo")
	return &viewMetricRepo{db: db, log: repoLog}
}

func (vr *viewMetricRepo) Upsert(ctx context.Context, tx *gorm.DB, metrics []*types.ViewMetric) error {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	if len(metrics) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "profile_id"}},
			UpdateAll: true,
		}).
		Create(&metrics).Error
}

func (vr *viewMetricRepo) GetByProfileID(ctx context.Context, tx *gorm.DB, profileID uuid.UUID) (*types.ViewMetric, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	var result types.ViewMetric
	err := transaction.WithContext(ctx).
		Where("profile_id = ?", profileID).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (vr *viewMetricRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.ViewMetric, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	var results []*types.ViewMetric
	if err := transaction.WithContext(ctx).
		Order("total_views DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (vr *viewMetricRepo) Delete(ctx context.Context, tx *gorm.DB, profileID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	return transaction.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Delete(&types.ViewMetric{}).Error
}
