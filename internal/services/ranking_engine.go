package services

import (
	"sort"

	"github.com/google/uuid"

	"github.com/localspark/marketplace-backend/internal/logger"
	"github.com/localspark/marketplace-backend/internal/types"
)

// RankingWeights controls the weighted sum behind overallScore. Weights need
// not sum to 1; they are applied to inputs normalized into [0,1].
type RankingWeights struct {
	Views       float64
	Engagement  float64
	Sentiment   float64
	Conversions float64
}

func DefaultRankingWeights() RankingWeights {
	return RankingWeights{
		Views:       0.40,
		Engagement:  0.25,
		Sentiment:   0.20,
		Conversions: 0.15,
	}
}

// RankingEngine combines view, engagement, sentiment, and conversion signals
// into one score per profile for top-performer queries.
//
//	overallScore = wv*norm(totalViews) + we*norm(totalEngagement)
//	             + ws*rescale(averageSentiment) + wc*norm(bookings)
//
// Views, engagement, and bookings are normalized against the cohort maximum
// (zero-safe), averageSentiment is rescaled from [-1,1] to [0,1]. The score
// is weakly monotone in every input. Ordering is deterministic: score
// descending, ties broken by totalViews descending then profileId ascending.
type RankingEngine struct {
	log     *logger.Logger
	weights RankingWeights
}

func NewRankingEngine(baseLog *logger.Logger, weights RankingWeights) *RankingEngine {
	if weights == (RankingWeights{}) {
		weights = DefaultRankingWeights()
	}
	return &RankingEngine{
		log:     baseLog.With("service", "RankingEngine"),
		weights: weights,
	}
}

func (re *RankingEngine) Rank(profiles []types.Profile, metrics []types.ViewMetric, sentiments []types.SentimentRecord) []types.RankingEntry {
	metricsByID := make(map[uuid.UUID]types.ViewMetric, len(metrics))
	for _, m := range metrics {
		metricsByID[m.ProfileID] = m
	}

	sentimentSums := make(map[uuid.UUID]float64)
	sentimentCounts := make(map[uuid.UUID]int)
	for _, s := range sentiments {
		sentimentSums[s.ProfileID] += s.SentimentScore
		sentimentCounts[s.ProfileID]++
	}

	entries := make([]types.RankingEntry, 0, len(profiles))
	var maxViews, maxEngagement, maxConversions int64
	for _, p := range profiles {
		m := metricsByID[p.ID]

		avgSentiment := 0.0
		if n := sentimentCounts[p.ID]; n > 0 {
			avgSentiment = sentimentSums[p.ID] / float64(n)
		}

		// Engagement is every interaction the pipeline records against the
		// profile: views plus completed bookings.
		engagement := m.TotalViews + m.Bookings

		entries = append(entries, types.RankingEntry{
			ProfileID:          p.ID,
			DisplayName:        p.DisplayName,
			TotalViews:         m.TotalViews,
			TotalEngagement:    engagement,
			AverageSentiment:   avgSentiment,
			BookingConversions: m.Bookings,
		})

		if m.TotalViews > maxViews {
			maxViews = m.TotalViews
		}
		if engagement > maxEngagement {
			maxEngagement = engagement
		}
		if m.Bookings > maxConversions {
			maxConversions = m.Bookings
		}
	}

	for i := range entries {
		e := &entries[i]
		e.OverallScore = re.weights.Views*normalize(e.TotalViews, maxViews) +
			re.weights.Engagement*normalize(e.TotalEngagement, maxEngagement) +
			re.weights.Sentiment*(e.AverageSentiment+1)/2 +
			re.weights.Conversions*normalize(e.BookingConversions, maxConversions)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].OverallScore != entries[j].OverallScore {
			return entries[i].OverallScore > entries[j].OverallScore
		}
		if entries[i].TotalViews != entries[j].TotalViews {
			return entries[i].TotalViews > entries[j].TotalViews
		}
		return entries[i].ProfileID.String() < entries[j].ProfileID.String()
	})
	return entries
}

// Top returns the n highest-scoring entries.
func (re *RankingEngine) Top(profiles []types.Profile, metrics []types.ViewMetric, sentiments []types.SentimentRecord, n int) []types.RankingEntry {
	ranked := re.Rank(profiles, metrics, sentiments)
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func normalize(v, max int64) float64 {
	if max <= 0 {
		return 0
	}
	return float64(v) / float64(max)
}
