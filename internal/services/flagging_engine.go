package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/localspark/marketplace-backend/internal/logger"
	"github.com/localspark/marketplace-backend/internal/repos"
	"github.com/localspark/marketplace-backend/internal/state"
	"github.com/localspark/marketplace-backend/internal/types"
)

const defaultAutoFlagConfidence = 0.7

// FlaggingEngine raises, tracks, and resolves moderation flags from analyzer
// output and manual moderation actions. Raising and resolving keep the
// flaggedProfilesCount aggregate in step (floored at zero), and resolution
// never deletes history.
type FlaggingEngine struct {
	log                *logger.Logger
	store              *state.Store
	flagRepo           repos.FlagRepo
	snapshots          *MetricsSnapshotService
	autoFlagConfidence float64
	now                func() time.Time
}

func NewFlaggingEngine(baseLog *logger.Logger, store *state.Store, flagRepo repos.FlagRepo, snapshots *MetricsSnapshotService, autoFlagConfidence float64) *FlaggingEngine {
	if autoFlagConfidence <= 0 {
		autoFlagConfidence = defaultAutoFlagConfidence
	}
	return &FlaggingEngine{
		log:                baseLog.With("service", "FlaggingEngine"),
		store:              store,
		flagRepo:           flagRepo,
		snapshots:          snapshots,
		autoFlagConfidence: autoFlagConfidence,
		now:                time.Now,
	}
}

// Evaluate applies the auto-flag rule to a fresh sentiment record: negative
// label, confidence above the threshold, and no unresolved flag already on
// the profile. Re-analyzing the same content while a flag is open is a no-op,
// which makes auto-flagging idempotent.
func (fe *FlaggingEngine) Evaluate(ctx context.Context, profileID uuid.UUID, rec types.SentimentRecord) (*types.Flag, bool) {
	if rec.SentimentLabel != types.SentimentLabelNegative || rec.Confidence <= fe.autoFlagConfidence {
		return nil, false
	}
	if _, open := fe.store.UnresolvedFlag(profileID, ""); open {
		return nil, false
	}

	flag := types.Flag{
		ID:             uuid.New(),
		ProfileID:      profileID,
		Reason:         types.FlagReasonNegativeSentiment,
		SentimentScore: rec.SentimentScore,
		FlaggedAt:      fe.now(),
	}
	fe.store.AppendFlag(&flag)
	fe.log.Info("profile auto-flagged for negative sentiment",
		"profile_id", profileID, "score", rec.SentimentScore, "confidence", rec.Confidence)

	fe.syncFlags(profileID)
	if fe.snapshots != nil {
		fe.snapshots.PublishAsync()
	}
	return &flag, true
}

// Flag raises a manual moderation flag. At most one unresolved flag per
// (profile, reason) pair: raising a duplicate returns the existing flag.
func (fe *FlaggingEngine) Flag(ctx context.Context, profileID uuid.UUID, reason types.FlagReason, sentimentScore float64) (types.Flag, error) {
	if !reason.Valid() {
		return types.Flag{}, fmt.Errorf("invalid flag reason %q", reason)
	}
	if _, ok := fe.store.GetProfile(profileID); !ok {
		return types.Flag{}, fmt.Errorf("unknown profile %s", profileID)
	}
	if existing, open := fe.store.UnresolvedFlag(profileID, reason); open {
		return *existing, nil
	}

	flag := types.Flag{
		ID:             uuid.New(),
		ProfileID:      profileID,
		Reason:         reason,
		SentimentScore: sentimentScore,
		FlaggedAt:      fe.now(),
	}
	fe.store.AppendFlag(&flag)
	fe.syncFlags(profileID)
	if fe.snapshots != nil {
		fe.snapshots.PublishAsync()
	}
	return flag, nil
}

// Resolve marks the most recent unresolved flag resolved. Resolving a
// profile with no open flag is a no-op, so double-resolution cannot push the
// flagged aggregate below zero.
func (fe *FlaggingEngine) Resolve(ctx context.Context, profileID uuid.UUID) bool {
	var resolvedFlag bool
	fe.store.UpdateFlags(profileID, func(flags []*types.Flag) bool {
		for i := len(flags) - 1; i >= 0; i-- {
			if flags[i].IsResolved {
				continue
			}
			now := fe.now()
			flags[i].IsResolved = true
			flags[i].ResolvedAt = &now
			resolvedFlag = true
			return true
		}
		return false
	})
	if resolvedFlag {
		fe.syncFlags(profileID)
		if fe.snapshots != nil {
			fe.snapshots.PublishAsync()
		}
	}
	return resolvedFlag
}

// IncrementRewrite bumps the profile's rewrite-attempt count. The count is
// per-profile: the target flag (most recent unresolved, or most recent
// overall when everything is resolved) is set to one past the highest count
// on any of the profile's flags, so the total survives resolve/re-flag
// cycles. Returns the new count.
func (fe *FlaggingEngine) IncrementRewrite(ctx context.Context, profileID uuid.UUID) (int, bool) {
	var newCount int
	updated := fe.store.UpdateFlags(profileID, func(flags []*types.Flag) bool {
		maxCount := 0
		for _, f := range flags {
			if f.RewriteCount > maxCount {
				maxCount = f.RewriteCount
			}
		}

		target := -1
		for i := len(flags) - 1; i >= 0; i-- {
			if !flags[i].IsResolved {
				target = i
				break
			}
		}
		if target < 0 {
			target = len(flags) - 1
		}

		newCount = maxCount + 1
		flags[target].RewriteCount = newCount
		return false
	})
	if !updated {
		return 0, false
	}
	fe.syncFlags(profileID)
	return newCount, true
}

// RewriteCount reports the per-profile rewrite total.
func (fe *FlaggingEngine) RewriteCount(profileID uuid.UUID) int {
	maxCount := 0
	for _, f := range fe.store.FlagsFor(profileID) {
		if f.RewriteCount > maxCount {
			maxCount = f.RewriteCount
		}
	}
	return maxCount
}

func (fe *FlaggingEngine) syncFlags(profileID uuid.UUID) {
	if fe.flagRepo == nil {
		return
	}
	flags := fe.store.FlagsFor(profileID)
	go func() {
		syncCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ptrs := make([]*types.Flag, len(flags))
		for i := range flags {
			ptrs[i] = &flags[i]
		}
		if err := fe.flagRepo.Upsert(syncCtx, nil, ptrs); err != nil {
			fe.log.Warn("flag sync failed", "profile_id", profileID, "error", err)
		}
	}()
}
