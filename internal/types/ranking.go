package types

import "github.com/google/uuid"

// RankingEntry is derived on demand by the ranking engine and never persisted.
type RankingEntry struct {
	ProfileID          uuid.UUID `json:"profile_id"`
	DisplayName        string    `json:"display_name"`
	TotalViews         int64     `json:"total_views"`
	TotalEngagement    int64     `json:"total_engagement"`
	AverageSentiment   float64   `json:"average_sentiment"`
	BookingConversions int64     `json:"booking_conversions"`
	OverallScore       float64   `json:"overall_score"`
}
