package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/localspark/marketplace-backend/internal/logger"
	"github.com/localspark/marketplace-backend/internal/repos"
	"github.com/localspark/marketplace-backend/internal/state"
	"github.com/localspark/marketplace-backend/internal/types"
)

const defaultGenerationTimeout = 45 * time.Second

// ProfileStore owns profile records and the status state machine:
//
//	PendingContent -> Ready | GenerationFailed
//	GenerationFailed -> Ready        (on retry)
//	Ready <-> Published              (admin-controlled)
//
// Any other transition is rejected. Creation always starts in
// PendingContent; content generation runs asynchronously so the profile is
// visible and usable while generation is in flight.
//
// The in-memory state store is the source of truth. Every successful
// mutation syncs best-effort to the repository collaborator; sync failures
// are logged and never surfaced to callers.
type ProfileStore struct {
	log       *logger.Logger
	store     *state.Store
	generator *ContentGenerator
	analyzer  *SentimentAnalyzer
	flagging  *FlaggingEngine
	snapshots *MetricsSnapshotService

	profileRepo   repos.ProfileRepo
	metricRepo    repos.ViewMetricRepo
	sentimentRepo repos.SentimentRecordRepo
	flagRepo      repos.FlagRepo

	generationTimeout time.Duration
	now               func() time.Time
}

type ProfileStoreConfig struct {
	ProfileRepo       repos.ProfileRepo
	MetricRepo        repos.ViewMetricRepo
	SentimentRepo     repos.SentimentRecordRepo
	FlagRepo          repos.FlagRepo
	GenerationTimeout time.Duration
}

func NewProfileStore(
	baseLog *logger.Logger,
	store *state.Store,
	generator *ContentGenerator,
	analyzer *SentimentAnalyzer,
	flagging *FlaggingEngine,
	snapshots *MetricsSnapshotService,
	cfg ProfileStoreConfig,
) *ProfileStore {
	timeout := cfg.GenerationTimeout
	if timeout <= 0 {
		timeout = defaultGenerationTimeout
	}
	return &ProfileStore{
		log:               baseLog.With("service", "ProfileStore"),
		store:             store,
		generator:         generator,
		analyzer:          analyzer,
		flagging:          flagging,
		snapshots:         snapshots,
		profileRepo:       cfg.ProfileRepo,
		metricRepo:        cfg.MetricRepo,
		sentimentRepo:     cfg.SentimentRepo,
		flagRepo:          cfg.FlagRepo,
		generationTimeout: timeout,
		now:               time.Now,
	}
}

type CreateProfileInput struct {
	DisplayName     string              `json:"display_name"`
	Skill           string              `json:"skill"`
	YearsExperience int                 `json:"years_experience"`
	Location        string              `json:"location"`
	Origin          types.ProfileOrigin `json:"origin"`
	Metadata        map[string]any      `json:"metadata"`
}

type UpdateProfileInput struct {
	DisplayName     *string              `json:"display_name"`
	Skill           *string              `json:"skill"`
	YearsExperience *int                 `json:"years_experience"`
	Location        *string              `json:"location"`
	Bio             *string              `json:"bio"`
	SuggestedPrice  *float64             `json:"suggested_price"`
	Status          *types.ProfileStatus `json:"status"`
}

// Create persists a new profile in PendingContent and triggers content
// generation in the background. The returned profile is immediately usable.
func (ps *ProfileStore) Create(ctx context.Context, input CreateProfileInput) (*types.Profile, error) {
	if input.DisplayName == "" {
		return nil, fmt.Errorf("display name is required")
	}
	if input.Skill == "" {
		return nil, fmt.Errorf("skill is required")
	}
	origin := input.Origin
	if origin == "" {
		origin = types.ProfileOriginServiceProvider
	}

	now := ps.now()
	profile := &types.Profile{
		ID:              uuid.New(),
		DisplayName:     input.DisplayName,
		Skill:           input.Skill,
		YearsExperience: input.YearsExperience,
		Location:        input.Location,
		Origin:          origin,
		Status:          types.ProfileStatusPendingContent,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if len(input.Metadata) > 0 {
		raw, err := json.Marshal(input.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		profile.Metadata = datatypes.JSON(raw)
	}

	ps.store.PutProfile(profile)
	ps.syncProfile(*profile)
	if ps.snapshots != nil {
		ps.snapshots.PublishAsync()
	}

	go ps.runGeneration(profile.ID)

	cp := *profile
	return &cp, nil
}

// runGeneration produces bio/price (always succeeds via fallback), scores
// the bio, lets the flagging engine evaluate it, and transitions the
// profile. A profile deleted while generation is in flight is left alone.
func (ps *ProfileStore) runGeneration(profileID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), ps.generationTimeout)
	defer cancel()

	profile, ok := ps.store.GetProfile(profileID)
	if !ok {
		return
	}

	content := ps.generator.Generate(ctx, profile.DisplayName, profile.Skill, profile.YearsExperience, profile.Location)

	if content.Bio == "" || content.Price <= 0 {
		// Fallback should make this unreachable; the failed state stays
		// retryable.
		ps.log.Error("generation produced no usable content", "profile_id", profileID)
		ps.transitionAfterGeneration(profileID, types.ProfileStatusGenerationFailed, GeneratedContent{})
		return
	}

	ps.transitionAfterGeneration(profileID, types.ProfileStatusReady, content)
	ps.analyzeContent(profileID, types.ContentTypeBio, content.Bio)
}

func (ps *ProfileStore) transitionAfterGeneration(profileID uuid.UUID, to types.ProfileStatus, content GeneratedContent) {
	updated, found, err := ps.store.UpdateProfile(profileID, func(p *types.Profile) error {
		// Published profiles keep their status on re-generation; only the
		// content fields change.
		if p.Status != types.ProfileStatusPublished {
			p.Status = to
		}
		if to == types.ProfileStatusReady {
			p.Bio = content.Bio
			p.SuggestedPrice = content.Price
		}
		p.UpdatedAt = ps.now()
		return nil
	})
	if err != nil || !found {
		return
	}
	ps.syncProfile(*updated)
	if ps.snapshots != nil {
		ps.snapshots.PublishAsync()
	}
}

// analyzeContent scores a content snapshot, records it, and runs the
// auto-flag evaluation.
func (ps *ProfileStore) analyzeContent(profileID uuid.UUID, contentType types.ContentType, text string) {
	if ps.analyzer == nil {
		return
	}
	rec := ps.analyzer.Analyze(profileID, contentType, text)
	ps.store.AppendSentiment(&rec)
	ps.syncSentiment(rec)
	if ps.flagging != nil {
		ps.flagging.Evaluate(context.Background(), profileID, rec)
	}
}

func (ps *ProfileStore) Get(id uuid.UUID) (*types.Profile, bool) {
	return ps.store.GetProfile(id)
}

func (ps *ProfileStore) List() []types.Profile {
	return ps.store.ListProfiles()
}

// Update merges the provided fields. A status set directly must be one of
// the four valid values and a legal transition from the current status;
// violations are hard failures and nothing is mutated.
func (ps *ProfileStore) Update(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*types.Profile, error) {
	var bioChanged bool
	updated, found, err := ps.store.UpdateProfile(id, func(p *types.Profile) error {
		if input.Status != nil {
			if !input.Status.Valid() {
				return fmt.Errorf("invalid profile status %q", *input.Status)
			}
			if !validTransition(p.Status, *input.Status) {
				return fmt.Errorf("illegal status transition %s -> %s", p.Status, *input.Status)
			}
			p.Status = *input.Status
		}
		if input.DisplayName != nil {
			p.DisplayName = *input.DisplayName
		}
		if input.Skill != nil {
			p.Skill = *input.Skill
		}
		if input.YearsExperience != nil {
			p.YearsExperience = *input.YearsExperience
		}
		if input.Location != nil {
			p.Location = *input.Location
		}
		if input.Bio != nil && *input.Bio != p.Bio {
			p.Bio = *input.Bio
			bioChanged = true
		}
		if input.SuggestedPrice != nil {
			p.SuggestedPrice = *input.SuggestedPrice
		}
		p.UpdatedAt = ps.now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("unknown profile %s", id)
	}

	ps.syncProfile(*updated)
	if ps.snapshots != nil {
		ps.snapshots.PublishAsync()
	}
	if bioChanged {
		ps.analyzeContent(id, types.ContentTypeBio, updated.Bio)
	}
	return updated, nil
}

// Retry re-invokes content generation. Only valid from GenerationFailed or
// Ready.
func (ps *ProfileStore) Retry(ctx context.Context, id uuid.UUID) error {
	profile, ok := ps.store.GetProfile(id)
	if !ok {
		return fmt.Errorf("unknown profile %s", id)
	}
	if profile.Status != types.ProfileStatusGenerationFailed && profile.Status != types.ProfileStatusReady {
		return fmt.Errorf("retry not valid from status %s", profile.Status)
	}
	go ps.runGeneration(id)
	return nil
}

// Delete removes the profile and cascades its view metric, sentiment
// records, and unresolved flags, both locally and (best-effort) in the
// repository. Deleting an unknown profile is a no-op.
func (ps *ProfileStore) Delete(ctx context.Context, id uuid.UUID) {
	existed, _ := ps.store.RemoveProfile(id)
	if !existed {
		return
	}

	go func() {
		syncCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if ps.profileRepo != nil {
			if err := ps.profileRepo.Delete(syncCtx, nil, id); err != nil {
				ps.log.Warn("profile delete sync failed", "profile_id", id, "error", err)
			}
		}
		if ps.metricRepo != nil {
			if err := ps.metricRepo.Delete(syncCtx, nil, id); err != nil {
				ps.log.Warn("view metric delete sync failed", "profile_id", id, "error", err)
			}
		}
		if ps.sentimentRepo != nil {
			if err := ps.sentimentRepo.DeleteByProfileID(syncCtx, nil, id); err != nil {
				ps.log.Warn("sentiment delete sync failed", "profile_id", id, "error", err)
			}
		}
		if ps.flagRepo != nil {
			if err := ps.flagRepo.DeleteUnresolvedByProfileID(syncCtx, nil, id); err != nil {
				ps.log.Warn("flag delete sync failed", "profile_id", id, "error", err)
			}
		}
	}()

	if ps.snapshots != nil {
		ps.snapshots.PublishAsync()
	}
}

// Hydrate loads persisted state into the in-memory store at startup. Repo
// errors degrade to an empty local cache rather than failing boot.
func (ps *ProfileStore) Hydrate(ctx context.Context) {
	if ps.profileRepo != nil {
		if profiles, err := ps.profileRepo.List(ctx, nil); err != nil {
			ps.log.Warn("profile hydrate failed, starting with empty cache", "error", err)
		} else {
			for _, p := range profiles {
				ps.store.PutProfile(p)
			}
		}
	}
	if ps.metricRepo != nil {
		if metrics, err := ps.metricRepo.List(ctx, nil); err != nil {
			ps.log.Warn("view metric hydrate failed", "error", err)
		} else {
			for _, m := range metrics {
				cp := *m
				ps.store.UpsertViewMetric(m.ProfileID, func(dst *types.ViewMetric, created bool) {
					*dst = cp
				})
			}
		}
	}
	if ps.sentimentRepo != nil {
		if records, err := ps.sentimentRepo.List(ctx, nil); err != nil {
			ps.log.Warn("sentiment hydrate failed", "error", err)
		} else {
			for _, r := range records {
				ps.store.AppendSentiment(r)
			}
		}
	}
	if ps.flagRepo != nil {
		if flags, err := ps.flagRepo.List(ctx, nil); err != nil {
			ps.log.Warn("flag hydrate failed", "error", err)
		} else {
			for _, f := range flags {
				ps.store.AppendFlag(f)
			}
		}
	}
}

func (ps *ProfileStore) syncProfile(p types.Profile) {
	if ps.profileRepo == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ps.profileRepo.Upsert(ctx, nil, []*types.Profile{&p}); err != nil {
			ps.log.Warn("profile sync failed", "profile_id", p.ID, "error", err)
		}
	}()
}

func (ps *ProfileStore) syncSentiment(rec types.SentimentRecord) {
	if ps.sentimentRepo == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ps.sentimentRepo.Create(ctx, nil, []*types.SentimentRecord{&rec}); err != nil {
			ps.log.Warn("sentiment sync failed", "profile_id", rec.ProfileID, "error", err)
		}
	}()
}

// validTransition encodes the status machine. Setting the current status
// again is a no-op and always allowed.
func validTransition(from, to types.ProfileStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case types.ProfileStatusPendingContent:
		return to == types.ProfileStatusReady || to == types.ProfileStatusGenerationFailed
	case types.ProfileStatusGenerationFailed:
		return to == types.ProfileStatusReady
	case types.ProfileStatusReady:
		return to == types.ProfileStatusPublished
	case types.ProfileStatusPublished:
		return to == types.ProfileStatusReady
	}
	return false
}
