package types

import (
	"time"

	"github.com/google/uuid"
)

type FlagReason string

const (
	FlagReasonNegativeSentiment FlagReason = "negative_sentiment"
	FlagReasonLowEngagement     FlagReason = "low_engagement"
	FlagReasonPoorConversion    FlagReason = "poor_conversion"
	FlagReasonManual            FlagReason = "manual"
)

func (r FlagReason) Valid() bool {
	switch r {
	case FlagReasonNegativeSentiment, FlagReasonLowEngagement, FlagReasonPoorConversion, FlagReasonManual:
		return true
	}
	return false
}

// Flag is a moderation marker. At most one unresolved flag may exist per
// (profile, reason) pair. RewriteCount only increments, never resets,
// surviving resolve/re-flag cycles.
type Flag struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProfileID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"profile_id"`
	Reason         FlagReason `gorm:"column:reason;not null" json:"reason"`
	SentimentScore float64    `gorm:"column:sentiment_score;not null;default:0" json:"sentiment_score"`
	IsResolved     bool       `gorm:"column:is_resolved;not null;default:false" json:"is_resolved"`
	RewriteCount   int        `gorm:"column:rewrite_count;not null;default:0" json:"rewrite_count"`
	FlaggedAt      time.Time  `gorm:"column:flagged_at;not null" json:"flagged_at"`
	ResolvedAt     *time.Time `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
}

func (Flag) TableName() string { return "flag" }
