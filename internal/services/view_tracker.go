package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/localspark/marketplace-backend/internal/logger"
	"github.com/localspark/marketplace-backend/internal/repos"
	"github.com/localspark/marketplace-backend/internal/state"
	"github.com/localspark/marketplace-backend/internal/types"
)

const trailingWeek = 7 * 24 * time.Hour

// ViewTracker maintains per-profile rolling view counters. Window semantics:
// viewsToday resets on a calendar-day change, viewsThisWeek on a gap of seven
// or more days since the last view, viewsThisMonth on a calendar month+year
// change. totalViews never resets.
//
// A view timestamped before lastViewedAt (clock skew, delayed delivery) is
// clamped to lastViewedAt: it still counts toward totalViews and the current
// windows, and lastViewedAt never moves backward.
type ViewTracker struct {
	log        *logger.Logger
	store      *state.Store
	metricRepo repos.ViewMetricRepo
	snapshots  *MetricsSnapshotService
	now        func() time.Time
}

func NewViewTracker(baseLog *logger.Logger, store *state.Store, metricRepo repos.ViewMetricRepo, snapshots *MetricsSnapshotService) *ViewTracker {
	return &ViewTracker{
		log:        baseLog.With("service", "ViewTracker"),
		store:      store,
		metricRepo: metricRepo,
		snapshots:  snapshots,
		now:        time.Now,
	}
}

// RecordView registers one view event. Views for unknown profiles are
// dropped as no-ops so replayed or late events never create orphan metrics.
// It reports whether the profile was known.
func (vt *ViewTracker) RecordView(ctx context.Context, profileID uuid.UUID, displayName, profileType string) (types.ViewMetric, bool) {
	return vt.recordViewAt(ctx, profileID, displayName, profileType, vt.now())
}

func (vt *ViewTracker) recordViewAt(ctx context.Context, profileID uuid.UUID, displayName, profileType string, at time.Time) (types.ViewMetric, bool) {
	if _, ok := vt.store.GetProfile(profileID); !ok {
		vt.log.Debug("view event for unknown profile dropped", "profile_id", profileID)
		return types.ViewMetric{}, false
	}

	updated := vt.store.UpsertViewMetric(profileID, func(m *types.ViewMetric, created bool) {
		if created {
			m.DisplayName = displayName
			m.ProfileType = profileType
			m.TotalViews = 1
			m.UniqueViews = 1
			m.ViewsToday = 1
			m.ViewsThisWeek = 1
			m.ViewsThisMonth = 1
			m.ConversionRate = 0
			m.LastViewedAt = at
			m.CreatedAt = at
			m.UpdatedAt = at
			return
		}

		if at.Before(m.LastViewedAt) {
			at = m.LastViewedAt
		}

		m.TotalViews++
		m.UniqueViews++
		if displayName != "" {
			m.DisplayName = displayName
		}
		if profileType != "" {
			m.ProfileType = profileType
		}

		if sameCalendarDay(m.LastViewedAt, at) {
			m.ViewsToday++
		} else {
			m.ViewsToday = 1
		}
		if at.Sub(m.LastViewedAt) < trailingWeek {
			m.ViewsThisWeek++
		} else {
			m.ViewsThisWeek = 1
		}
		if sameCalendarMonth(m.LastViewedAt, at) {
			m.ViewsThisMonth++
		} else {
			m.ViewsThisMonth = 1
		}

		m.ConversionRate = conversionRate(m.Bookings, m.TotalViews)
		m.LastViewedAt = at
		m.UpdatedAt = at
	})

	vt.syncMetric(ctx, updated)
	if vt.snapshots != nil {
		vt.snapshots.PublishAsync()
	}
	return updated, true
}

// RecordBooking registers a completed booking against the profile and
// recomputes the conversion rate. A booking for a profile with no recorded
// views is a no-op: there is nothing to convert from.
func (vt *ViewTracker) RecordBooking(ctx context.Context, profileID uuid.UUID) (types.ViewMetric, bool) {
	existing, ok := vt.store.GetViewMetric(profileID)
	if !ok || existing.TotalViews == 0 {
		vt.log.Debug("booking event without view history dropped", "profile_id", profileID)
		return types.ViewMetric{}, false
	}

	updated := vt.store.UpsertViewMetric(profileID, func(m *types.ViewMetric, created bool) {
		m.Bookings++
		m.ConversionRate = conversionRate(m.Bookings, m.TotalViews)
		m.UpdatedAt = vt.now()
	})

	vt.syncMetric(ctx, updated)
	if vt.snapshots != nil {
		vt.snapshots.PublishAsync()
	}
	return updated, true
}

func (vt *ViewTracker) syncMetric(ctx context.Context, m types.ViewMetric) {
	if vt.metricRepo == nil {
		return
	}
	go func() {
		syncCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := vt.metricRepo.Upsert(syncCtx, nil, []*types.ViewMetric{&m}); err != nil {
			vt.log.Warn("view metric sync failed", "profile_id", m.ProfileID, "error", err)
		}
	}()
}

func conversionRate(bookings, totalViews int64) float64 {
	if totalViews == 0 {
		return 0
	}
	rate := float64(bookings) / float64(totalViews) * 100
	if rate < 0 {
		return 0
	}
	if rate > 100 {
		return 100
	}
	return rate
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sameCalendarMonth(a, b time.Time) bool {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return ay == by && am == bm
}
