package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localspark/marketplace-backend/internal/logger"
	"github.com/localspark/marketplace-backend/internal/types"
)

type SentimentRecordRepo interface {
	Create(ctx context.Context, tx *gorm.DB, records []*types.SentimentRecord) error
	GetByProfileID(ctx context.Context, tx *gorm.DB, profileID uuid.UUID) ([]*types.SentimentRecord, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.SentimentRecord, error)
	DeleteByProfileID(ctx context.Context, tx *gorm.DB, profileID uuid.UUID) error
}

type sentimentRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSentimentRecordRepo(db *gorm.DB, baseLog *logger.Logger) SentimentRecordRepo {
	repoLog := baseLog.With("repo", "SentimentRecordRepo")
	return &sentimentRecordRepo{db: db, log: repoLog}
}

func (sr *sentimentRecordRepo) Create(ctx context.Context, tx *gorm.DB, records []*types.SentimentRecord) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	if len(records) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&records).Error
}

func (sr *sentimentRecordRepo) GetByProfileID(ctx context.Context, tx *gorm.DB, profileID uuid.UUID) ([]*types.SentimentRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var results []*types.SentimentRecord
	if err := transaction.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("analyzed_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *sentimentRecordRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.SentimentRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var results []*types.SentimentRecord
	if err := transaction.WithContext(ctx).
		Order("analyzed_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *sentimentRecordRepo) DeleteByProfileID(ctx context.Context, tx *gorm.DB, profileID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	return transaction.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Delete(&types.SentimentRecord{}).Error
}
