package types

import "time"

type TrendDirection string

const (
	TrendUp        TrendDirection = "up"
	TrendDown      TrendDirection = "down"
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// OverallStats is the aggregate block of the metrics snapshot. Trend fields
// compare the current window against the prior one.
type OverallStats struct {
	TotalProfiles        int            `json:"total_profiles"`
	TotalViews           int64          `json:"total_views"`
	TotalBookings        int64          `json:"total_bookings"`
	AverageSentiment     float64        `json:"average_sentiment"`
	AverageConversion    float64        `json:"average_conversion"`
	FlaggedProfilesCount int            `json:"flagged_profiles_count"`
	ViewsTrend           TrendDirection `json:"views_trend"`
	SentimentTrend       TrendDirection `json:"sentiment_trend"`
}

// MetricsSnapshot is the read-only aggregate handed to the UI layer.
type MetricsSnapshot struct {
	ProfileViews          []ViewMetric      `json:"profile_views"`
	SentimentAnalysis     []SentimentRecord `json:"sentiment_analysis"`
	FlaggedProfiles       []Flag            `json:"flagged_profiles"`
	TopPerformingProfiles []RankingEntry    `json:"top_performing_profiles"`
	OverallStats          OverallStats      `json:"overall_stats"`
	GeneratedAt           time.Time         `json:"generated_at"`
}
