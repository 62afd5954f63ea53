package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/localspark/marketplace-backend/internal/logger"
	"github.com/localspark/marketplace-backend/internal/state"
	"github.com/localspark/marketplace-backend/internal/types"
)

// newTestProfileStore wires the full local pipeline (generator fallback,
// analyzer, flagging) with no repos and no external AI client.
func newTestProfileStore(t *testing.T) (*ProfileStore, *FlaggingEngine, *state.Store) {
	t.Helper()
	log := logger.NewNop()
	store := state.NewStore()
	flagging := NewFlaggingEngine(log, store, nil, nil, 0.7)
	ps := NewProfileStore(
		log,
		store,
		NewContentGenerator(log, nil),
		NewSentimentAnalyzer(log, KeywordConfig{}),
		flagging,
		nil,
		ProfileStoreConfig{},
	)
	return ps, flagging, store
}

func waitForStatus(t *testing.T, ps *ProfileStore, id uuid.UUID, want types.ProfileStatus) types.Profile {
	t.Helper()
	var got types.Profile
	require.Eventually(t, func() bool {
		p, ok := ps.Get(id)
		if !ok {
			return false
		}
		got = *p
		return p.Status == want
	}, 2*time.Second, 10*time.Millisecond, "profile never reached status %s", want)
	return got
}

func TestCreateStartsPendingThenReady(t *testing.T) {
	ps, _, _ := newTestProfileStore(t)

	profile, err := ps.Create(context.Background(), CreateProfileInput{
		DisplayName:     "Dana",
		Skill:           "Plumbing",
		YearsExperience: 8,
		Location:        "Austin",
	})
	require.NoError(t, err)
	require.Equal(t, types.ProfileStatusPendingContent, profile.Status,
		"profile must be visible in PendingContent while generation is in flight")

	ready := waitForStatus(t, ps, profile.ID, types.ProfileStatusReady)
	require.NotEmpty(t, ready.Bio)
	require.Equal(t, float64(540), ready.SuggestedPrice)
}

func TestCreateValidation(t *testing.T) {
	ps, _, _ := newTestProfileStore(t)

	_, err := ps.Create(context.Background(), CreateProfileInput{Skill: "Plumbing"})
	require.Error(t, err)
	_, err = ps.Create(context.Background(), CreateProfileInput{DisplayName: "Dana"})
	require.Error(t, err)
}

func TestCreateAnalyzesGeneratedBio(t *testing.T) {
	ps, _, store := newTestProfileStore(t)

	profile, err := ps.Create(context.Background(), CreateProfileInput{
		DisplayName: "Dana",
		Skill:       "Plumbing",
		Location:    "Austin",
	})
	require.NoError(t, err)
	waitForStatus(t, ps, profile.ID, types.ProfileStatusReady)

	require.Eventually(t, func() bool {
		return len(store.SentimentsFor(profile.ID)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	rec := store.SentimentsFor(profile.ID)[0]
	require.Equal(t, types.ContentTypeBio, rec.ContentType)
}

func TestUpdateStatusTransitions(t *testing.T) {
	cases := []struct {
		name    string
		from    types.ProfileStatus
		to      types.ProfileStatus
		allowed bool
	}{
		{name: "pending_to_ready", from: types.ProfileStatusPendingContent, to: types.ProfileStatusReady, allowed: true},
		{name: "pending_to_failed", from: types.ProfileStatusPendingContent, to: types.ProfileStatusGenerationFailed, allowed: true},
		{name: "pending_to_published", from: types.ProfileStatusPendingContent, to: types.ProfileStatusPublished, allowed: false},
		{name: "failed_to_ready", from: types.ProfileStatusGenerationFailed, to: types.ProfileStatusReady, allowed: true},
		{name: "failed_to_published", from: types.ProfileStatusGenerationFailed, to: types.ProfileStatusPublished, allowed: false},
		{name: "ready_to_published", from: types.ProfileStatusReady, to: types.ProfileStatusPublished, allowed: true},
		{name: "published_to_ready", from: types.ProfileStatusPublished, to: types.ProfileStatusReady, allowed: true},
		{name: "ready_to_pending", from: types.ProfileStatusReady, to: types.ProfileStatusPendingContent, allowed: false},
		{name: "published_to_failed", from: types.ProfileStatusPublished, to: types.ProfileStatusGenerationFailed, allowed: false},
		{name: "same_status_noop", from: types.ProfileStatusReady, to: types.ProfileStatusReady, allowed: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ps, _, store := newTestProfileStore(t)
			id := uuid.New()
			store.PutProfile(&types.Profile{ID: id, DisplayName: "Dana", Skill: "Plumbing", Status: tc.from})

			_, err := ps.Update(context.Background(), id, UpdateProfileInput{Status: &tc.to})
			if tc.allowed {
				require.NoError(t, err)
				p, _ := ps.Get(id)
				require.Equal(t, tc.to, p.Status)
			} else {
				require.Error(t, err)
				p, _ := ps.Get(id)
				require.Equal(t, tc.from, p.Status, "failed transition must not mutate")
			}
		})
	}
}

func TestUpdateRejectsInvalidStatusValue(t *testing.T) {
	ps, _, store := newTestProfileStore(t)
	id := uuid.New()
	store.PutProfile(&types.Profile{ID: id, DisplayName: "Dana", Status: types.ProfileStatusReady})

	bogus := types.ProfileStatus("archived")
	_, err := ps.Update(context.Background(), id, UpdateProfileInput{Status: &bogus})
	require.Error(t, err)
}

func TestUpdateBioTriggersReanalysisAndAutoFlag(t *testing.T) {
	ps, _, store := newTestProfileStore(t)
	id := uuid.New()
	store.PutProfile(&types.Profile{ID: id, DisplayName: "Dana", Skill: "Plumbing", Status: types.ProfileStatusReady})

	badBio := "Unreliable service provider with poor quality work and overpriced rates."
	_, err := ps.Update(context.Background(), id, UpdateProfileInput{Bio: &badBio})
	require.NoError(t, err)

	recs := store.SentimentsFor(id)
	require.Len(t, recs, 1)
	require.Equal(t, types.SentimentLabelNegative, recs[0].SentimentLabel)
	require.True(t, recs[0].NeedsRewrite)

	flag, open := store.UnresolvedFlag(id, types.FlagReasonNegativeSentiment)
	require.True(t, open, "negative high-confidence bio must auto-flag")
	require.Equal(t, types.FlagReasonNegativeSentiment, flag.Reason)
}

func TestRetryRules(t *testing.T) {
	ps, _, store := newTestProfileStore(t)

	failed := uuid.New()
	store.PutProfile(&types.Profile{ID: failed, DisplayName: "Dana", Skill: "Plumbing", Status: types.ProfileStatusGenerationFailed})
	require.NoError(t, ps.Retry(context.Background(), failed))
	waitForStatus(t, ps, failed, types.ProfileStatusReady)

	pending := uuid.New()
	store.PutProfile(&types.Profile{ID: pending, DisplayName: "Sam", Skill: "Cleaning", Status: types.ProfileStatusPendingContent})
	require.Error(t, ps.Retry(context.Background(), pending), "retry is not valid while generation is pending")

	published := uuid.New()
	store.PutProfile(&types.Profile{ID: published, DisplayName: "Kim", Skill: "Tutoring", Status: types.ProfileStatusPublished})
	require.Error(t, ps.Retry(context.Background(), published))

	require.Error(t, ps.Retry(context.Background(), uuid.New()))
}

func TestDeleteCascades(t *testing.T) {
	ps, flagging, store := newTestProfileStore(t)
	id := uuid.New()
	store.PutProfile(&types.Profile{ID: id, DisplayName: "Dana", Skill: "Plumbing", Status: types.ProfileStatusReady})

	store.UpsertViewMetric(id, func(m *types.ViewMetric, created bool) {
		m.TotalViews = 5
	})
	store.AppendSentiment(&types.SentimentRecord{ID: uuid.New(), ProfileID: id})
	_, err := flagging.Flag(context.Background(), id, types.FlagReasonManual, 0)
	require.NoError(t, err)
	require.Equal(t, 1, store.FlaggedProfilesCount())

	ps.Delete(context.Background(), id)

	_, ok := ps.Get(id)
	require.False(t, ok)
	_, ok = store.GetViewMetric(id)
	require.False(t, ok)
	require.Empty(t, store.SentimentsFor(id))
	_, open := store.UnresolvedFlag(id, "")
	require.False(t, open)
	require.Equal(t, 0, store.FlaggedProfilesCount())

	// Deleting again is a no-op.
	ps.Delete(context.Background(), id)
}

func TestDeleteWithMultipleOpenFlags(t *testing.T) {
	ps, flagging, store := newTestProfileStore(t)
	id := uuid.New()
	store.PutProfile(&types.Profile{ID: id, DisplayName: "Dana", Skill: "Plumbing", Status: types.ProfileStatusReady})

	// One unresolved flag per reason can coexist on the same profile.
	_, err := flagging.Flag(context.Background(), id, types.FlagReasonManual, 0)
	require.NoError(t, err)
	_, err = flagging.Flag(context.Background(), id, types.FlagReasonLowEngagement, 0)
	require.NoError(t, err)
	require.Equal(t, 2, store.FlaggedProfilesCount())

	ps.Delete(context.Background(), id)

	require.Equal(t, 0, store.FlaggedProfilesCount(),
		"cascade must deduct every unresolved flag it removes")

	// A later resolve elsewhere must not be absorbed by leftover skew.
	other := uuid.New()
	store.PutProfile(&types.Profile{ID: other, DisplayName: "Sam", Skill: "Cleaning", Status: types.ProfileStatusReady})
	_, err = flagging.Flag(context.Background(), other, types.FlagReasonManual, 0)
	require.NoError(t, err)
	require.Equal(t, 1, store.FlaggedProfilesCount())
	require.True(t, flagging.Resolve(context.Background(), other))
	require.Equal(t, 0, store.FlaggedProfilesCount())
}
