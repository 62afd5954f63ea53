package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SentimentLabel string

const (
	SentimentLabelPositive SentimentLabel = "positive"
	SentimentLabelNeutral  SentimentLabel = "neutral"
	SentimentLabelNegative SentimentLabel = "negative"
)

type ContentType string

const (
	ContentTypeBio        ContentType = "bio"
	ContentTypeSocialPost ContentType = "social_post"
)

// SentimentRecord is the analyzer output for one content snapshot.
// Label and NeedsRewrite are derived from score and confidence, never set
// independently: negative iff score < -0.2, positive iff score > 0.2,
// needsRewrite iff negative and confidence > 0.6.
type SentimentRecord struct {
	ID              uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	ProfileID       uuid.UUID                   `gorm:"type:uuid;not null;index" json:"profile_id"`
	ContentType     ContentType                 `gorm:"column:content_type;not null" json:"content_type"`
	Content         string                      `gorm:"column:content" json:"content"`
	SentimentScore  float64                     `gorm:"column:sentiment_score;not null;default:0" json:"sentiment_score"`
	SentimentLabel  SentimentLabel              `gorm:"column:sentiment_label;not null" json:"sentiment_label"`
	Confidence      float64                     `gorm:"column:confidence;not null;default:0" json:"confidence"`
	MatchedKeywords datatypes.JSONSlice[string] `gorm:"column:matched_keywords" json:"matched_keywords"`
	NeedsRewrite    bool                        `gorm:"column:needs_rewrite;not null;default:false" json:"needs_rewrite"`
	AnalyzedAt      time.Time                   `gorm:"column:analyzed_at;not null" json:"analyzed_at"`
}

func (SentimentRecord) TableName() string { return "sentiment_record" }
