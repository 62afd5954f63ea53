package services

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/localspark/marketplace-backend/internal/logger"
	"github.com/localspark/marketplace-backend/internal/state"
	"github.com/localspark/marketplace-backend/internal/types"
)

const defaultTopPerformers = 10

// sentimentTrendEpsilon is the half-window mean difference below which the
// sentiment trend reads stable.
const sentimentTrendEpsilon = 0.05

// MetricsSnapshotService assembles the read-only aggregate the UI layer
// consumes, and mirrors it best-effort after mutations. The snapshot is a
// point-in-time copy; readers never touch live pipeline state.
type MetricsSnapshotService struct {
	log     *logger.Logger
	store   *state.Store
	ranking *RankingEngine
	mirror  *SnapshotMirror
	topN    int
}

func NewMetricsSnapshotService(baseLog *logger.Logger, store *state.Store, ranking *RankingEngine, mirror *SnapshotMirror, topN int) *MetricsSnapshotService {
	if topN <= 0 {
		topN = defaultTopPerformers
	}
	return &MetricsSnapshotService{
		log:     baseLog.With("service", "MetricsSnapshotService"),
		store:   store,
		ranking: ranking,
		mirror:  mirror,
		topN:    topN,
	}
}

func (ms *MetricsSnapshotService) Build(ctx context.Context) (types.MetricsSnapshot, error) {
	var (
		profiles   []types.Profile
		metrics    []types.ViewMetric
		sentiments []types.SentimentRecord
		flags      []types.Flag
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error { profiles = ms.store.ListProfiles(); return nil })
	g.Go(func() error { metrics = ms.store.ListViewMetrics(); return nil })
	g.Go(func() error { sentiments = ms.store.ListSentiments(); return nil })
	g.Go(func() error { flags = ms.store.ListFlags(); return nil })
	if err := g.Wait(); err != nil {
		return types.MetricsSnapshot{}, err
	}

	flagged := make([]types.Flag, 0, len(flags))
	for _, f := range flags {
		if !f.IsResolved {
			flagged = append(flagged, f)
		}
	}

	snap := types.MetricsSnapshot{
		ProfileViews:          metrics,
		SentimentAnalysis:     sentiments,
		FlaggedProfiles:       flagged,
		TopPerformingProfiles: ms.ranking.Top(profiles, metrics, sentiments, ms.topN),
		OverallStats:          ms.overallStats(profiles, metrics, sentiments),
		GeneratedAt:           time.Now().UTC(),
	}
	return snap, nil
}

func (ms *MetricsSnapshotService) overallStats(profiles []types.Profile, metrics []types.ViewMetric, sentiments []types.SentimentRecord) types.OverallStats {
	stats := types.OverallStats{
		TotalProfiles:        len(profiles),
		FlaggedProfilesCount: ms.store.FlaggedProfilesCount(),
	}

	var viewsToday, viewsThisWeek int64
	var conversionSum float64
	for _, m := range metrics {
		stats.TotalViews += m.TotalViews
		stats.TotalBookings += m.Bookings
		conversionSum += m.ConversionRate
		viewsToday += m.ViewsToday
		viewsThisWeek += m.ViewsThisWeek
	}
	if len(metrics) > 0 {
		stats.AverageConversion = conversionSum / float64(len(metrics))
	}

	var sentimentSum float64
	for _, s := range sentiments {
		sentimentSum += s.SentimentScore
	}
	if len(sentiments) > 0 {
		stats.AverageSentiment = sentimentSum / float64(len(sentiments))
	}

	stats.ViewsTrend = viewsTrend(viewsToday, viewsThisWeek)
	stats.SentimentTrend = sentimentTrend(sentiments)
	return stats
}

// viewsTrend compares today's views against the mean daily views of the
// prior six days of the trailing week.
func viewsTrend(viewsToday, viewsThisWeek int64) types.TrendDirection {
	prior := viewsThisWeek - viewsToday
	priorDaily := float64(prior) / 6
	today := float64(viewsToday)
	switch {
	case today > priorDaily:
		return types.TrendUp
	case today < priorDaily:
		return types.TrendDown
	default:
		return types.TrendStable
	}
}

// sentimentTrend splits the records chronologically in half and compares
// mean scores, with a small epsilon reading as stable.
func sentimentTrend(sentiments []types.SentimentRecord) types.TrendDirection {
	if len(sentiments) < 2 {
		return types.TrendStable
	}
	ordered := make([]types.SentimentRecord, len(sentiments))
	copy(ordered, sentiments)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].AnalyzedAt.Before(ordered[j].AnalyzedAt) })

	mid := len(ordered) / 2
	older, newer := ordered[:mid], ordered[mid:]

	mean := func(recs []types.SentimentRecord) float64 {
		var sum float64
		for _, r := range recs {
			sum += r.SentimentScore
		}
		return sum / float64(len(recs))
	}

	delta := mean(newer) - mean(older)
	switch {
	case delta > sentimentTrendEpsilon:
		return types.TrendImproving
	case delta < -sentimentTrendEpsilon:
		return types.TrendDeclining
	default:
		return types.TrendStable
	}
}

// PublishAsync mirrors the current snapshot without blocking the caller.
// Mirror failures are logged and swallowed: the mirror is eventually, not
// strictly, consistent with local state.
func (ms *MetricsSnapshotService) PublishAsync() {
	if ms.mirror == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		snap, err := ms.Build(ctx)
		if err != nil {
			ms.log.Warn("snapshot build for mirror failed", "error", err)
			return
		}
		if err := ms.mirror.Publish(ctx, snap); err != nil {
			ms.log.Warn("snapshot mirror publish failed", "error", err)
		}
	}()
}
