package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/localspark/marketplace-backend/internal/logger"
	"github.com/localspark/marketplace-backend/internal/state"
	"github.com/localspark/marketplace-backend/internal/types"
)

func newTestTracker(t *testing.T) (*ViewTracker, *state.Store, uuid.UUID) {
	t.Helper()
	store := state.NewStore()
	profileID := uuid.New()
	store.PutProfile(&types.Profile{
		ID:          profileID,
		DisplayName: "Dana",
		Skill:       "Plumbing",
		Status:      types.ProfileStatusReady,
	})
	return NewViewTracker(logger.NewNop(), store, nil, nil), store, profileID
}

func TestRecordViewFirstEvent(t *testing.T) {
	tracker, _, profileID := newTestTracker(t)
	at := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	m, ok := tracker.recordViewAt(context.Background(), profileID, "Dana", "service_provider", at)
	if !ok {
		t.Fatal("view was not recorded")
	}
	if m.TotalViews != 1 || m.ViewsToday != 1 || m.ViewsThisWeek != 1 || m.ViewsThisMonth != 1 {
		t.Fatalf("first view counters = %+v, want all 1", m)
	}
	if m.ConversionRate != 0 {
		t.Fatalf("conversionRate=%v, want 0", m.ConversionRate)
	}
	if !m.LastViewedAt.Equal(at) {
		t.Fatalf("lastViewedAt=%v, want %v", m.LastViewedAt, at)
	}
}

func TestRecordViewWindowedCounters(t *testing.T) {
	base := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	cases := []struct {
		name      string
		second    time.Time
		wantDay   int64
		wantWeek  int64
		wantMonth int64
	}{
		{
			name:      "same_day_increments_all",
			second:    base.Add(2 * time.Hour),
			wantDay:   2,
			wantWeek:  2,
			wantMonth: 2,
		},
		{
			name:      "next_day_resets_today",
			second:    base.Add(24 * time.Hour),
			wantDay:   1,
			wantWeek:  2,
			wantMonth: 2,
		},
		{
			name:      "eight_days_resets_week",
			second:    base.Add(8 * 24 * time.Hour),
			wantDay:   1,
			wantWeek:  1,
			wantMonth: 2,
		},
		{
			name:      "next_month_resets_month",
			second:    time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC),
			wantDay:   1,
			wantWeek:  1,
			wantMonth: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tracker, _, profileID := newTestTracker(t)
			tracker.recordViewAt(context.Background(), profileID, "", "", base)
			m, _ := tracker.recordViewAt(context.Background(), profileID, "", "", tc.second)

			if m.TotalViews != 2 {
				t.Fatalf("totalViews=%d, want 2", m.TotalViews)
			}
			if m.ViewsToday != tc.wantDay {
				t.Fatalf("viewsToday=%d, want %d", m.ViewsToday, tc.wantDay)
			}
			if m.ViewsThisWeek != tc.wantWeek {
				t.Fatalf("viewsThisWeek=%d, want %d", m.ViewsThisWeek, tc.wantWeek)
			}
			if m.ViewsThisMonth != tc.wantMonth {
				t.Fatalf("viewsThisMonth=%d, want %d", m.ViewsThisMonth, tc.wantMonth)
			}
		})
	}
}

func TestRecordViewSameDayNeverResets(t *testing.T) {
	tracker, _, profileID := newTestTracker(t)
	at := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	var m types.ViewMetric
	for i := 0; i < 5; i++ {
		m, _ = tracker.recordViewAt(context.Background(), profileID, "", "", at.Add(time.Duration(i)*time.Hour))
	}
	if m.ViewsToday != 5 {
		t.Fatalf("viewsToday=%d after 5 same-day views, want 5", m.ViewsToday)
	}
	if m.TotalViews != 5 {
		t.Fatalf("totalViews=%d, want 5", m.TotalViews)
	}

	// Next calendar day: today resets to 1, total keeps growing.
	m, _ = tracker.recordViewAt(context.Background(), profileID, "", "", at.Add(25*time.Hour))
	if m.ViewsToday != 1 {
		t.Fatalf("viewsToday=%d after day rollover, want 1", m.ViewsToday)
	}
	if m.TotalViews != 6 {
		t.Fatalf("totalViews=%d, want 6", m.TotalViews)
	}
}

func TestRecordViewOutOfOrderClamped(t *testing.T) {
	tracker, _, profileID := newTestTracker(t)
	at := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	tracker.recordViewAt(context.Background(), profileID, "", "", at)
	m, _ := tracker.recordViewAt(context.Background(), profileID, "", "", at.Add(-48*time.Hour))

	if m.TotalViews != 2 {
		t.Fatalf("totalViews=%d, want 2 (late event still counts)", m.TotalViews)
	}
	if m.ViewsToday != 2 {
		t.Fatalf("viewsToday=%d, want 2 (late event clamps into the current window)", m.ViewsToday)
	}
	if !m.LastViewedAt.Equal(at) {
		t.Fatalf("lastViewedAt moved backward to %v", m.LastViewedAt)
	}
}

func TestRecordViewUnknownProfileNoOp(t *testing.T) {
	tracker, store, _ := newTestTracker(t)
	unknown := uuid.New()

	_, ok := tracker.RecordView(context.Background(), unknown, "ghost", "service_provider")
	if ok {
		t.Fatal("view for unknown profile was recorded")
	}
	if _, exists := store.GetViewMetric(unknown); exists {
		t.Fatal("orphan view metric created for unknown profile")
	}
}

func TestRecordBookingConversionRate(t *testing.T) {
	tracker, _, profileID := newTestTracker(t)
	at := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		tracker.recordViewAt(context.Background(), profileID, "", "", at.Add(time.Duration(i)*time.Minute))
	}
	m, ok := tracker.RecordBooking(context.Background(), profileID)
	if !ok {
		t.Fatal("booking was not recorded")
	}
	if m.ConversionRate != 25 {
		t.Fatalf("conversionRate=%v, want 25", m.ConversionRate)
	}

	// Booking without any view history is dropped.
	_, ok = tracker.RecordBooking(context.Background(), uuid.New())
	if ok {
		t.Fatal("booking for profile without views was recorded")
	}
}

func TestRecordViewConcurrentNoLostUpdates(t *testing.T) {
	tracker, _, profileID := newTestTracker(t)
	at := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	const workers = 32
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			tracker.recordViewAt(context.Background(), profileID, "", "", at.Add(time.Duration(i)*time.Second))
		}(i)
	}
	wg.Wait()

	m, _ := tracker.recordViewAt(context.Background(), profileID, "", "", at.Add(time.Hour))
	if m.TotalViews != workers+1 {
		t.Fatalf("totalViews=%d after %d concurrent views, want %d", m.TotalViews, workers, workers+1)
	}
}
