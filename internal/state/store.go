package state

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/localspark/marketplace-backend/internal/types"
)

// Store is the shared in-process state the pipeline components operate on.
// It is constructed once in main and passed by handle to every component;
// there are no package-level singletons. All read-modify-write cycles run
// under the store lock, so concurrent view events on the same profile are
// serialized and cannot lose windowed-counter updates.
//
// The store is the local source of truth. Persistence to the repository
// collaborator is a best-effort mirror handled by the services layer.
type Store struct {
	mu sync.RWMutex

	profiles    map[uuid.UUID]*types.Profile
	viewMetrics map[uuid.UUID]*types.ViewMetric
	sentiments  map[uuid.UUID][]*types.SentimentRecord
	flags       map[uuid.UUID][]*types.Flag

	flaggedProfilesCount int
}

func NewStore() *Store {
	return &Store{
		profiles:    make(map[uuid.UUID]*types.Profile),
		viewMetrics: make(map[uuid.UUID]*types.ViewMetric),
		sentiments:  make(map[uuid.UUID][]*types.SentimentRecord),
		flags:       make(map[uuid.UUID][]*types.Flag),
	}
}

// ---- Profiles ----

func (s *Store) PutProfile(p *types.Profile) {
	if p == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.profiles[p.ID] = &cp
}

func (s *Store) GetProfile(id uuid.UUID) (*types.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

// UpdateProfile applies fn to the stored profile under the lock. It returns
// a copy of the updated profile, or false when the profile does not exist.
// An error from fn aborts the mutation.
func (s *Store) UpdateProfile(id uuid.UUID, fn func(*types.Profile) error) (*types.Profile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, false, nil
	}
	if err := fn(p); err != nil {
		return nil, true, err
	}
	cp := *p
	return &cp, true, nil
}

// RemoveProfile deletes the profile and cascades removal of its view metric,
// sentiment records, and unresolved flags. Resolved flags stay as history.
// It reports whether a profile existed and how many unresolved flags the
// cascade removed; the flagged aggregate is decremented by that many, since
// a profile can hold one unresolved flag per reason.
func (s *Store) RemoveProfile(id uuid.UUID) (existed bool, removedUnresolved int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[id]; !ok {
		return false, 0
	}
	delete(s.profiles, id)
	delete(s.viewMetrics, id)
	delete(s.sentiments, id)

	kept := s.flags[id][:0]
	for _, f := range s.flags[id] {
		if f.IsResolved {
			kept = append(kept, f)
			continue
		}
		removedUnresolved++
	}
	if len(kept) == 0 {
		delete(s.flags, id)
	} else {
		s.flags[id] = kept
	}
	s.flaggedProfilesCount -= removedUnresolved
	if s.flaggedProfilesCount < 0 {
		s.flaggedProfilesCount = 0
	}
	return true, removedUnresolved
}

func (s *Store) ListProfiles() []types.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// ---- View metrics ----

// UpsertViewMetric applies fn as one atomic read-modify-write step. When no
// metric exists yet, fn receives a zero-value metric with the profile ID set
// and created == false.
func (s *Store) UpsertViewMetric(profileID uuid.UUID, fn func(m *types.ViewMetric, created bool)) types.ViewMetric {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.viewMetrics[profileID]
	if !ok {
		m = &types.ViewMetric{ProfileID: profileID}
		s.viewMetrics[profileID] = m
	}
	fn(m, !ok)
	return *m
}

func (s *Store) GetViewMetric(profileID uuid.UUID) (*types.ViewMetric, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.viewMetrics[profileID]
	if !ok {
		return nil, false
	}
	cp := *m
	return &cp, true
}

func (s *Store) ListViewMetrics() []types.ViewMetric {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.ViewMetric, 0, len(s.viewMetrics))
	for _, m := range s.viewMetrics {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProfileID.String() < out[j].ProfileID.String()
	})
	return out
}

// ---- Sentiment records ----

func (s *Store) AppendSentiment(rec *types.SentimentRecord) {
	if rec == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.sentiments[rec.ProfileID] = append(s.sentiments[rec.ProfileID], &cp)
}

func (s *Store) SentimentsFor(profileID uuid.UUID) []types.SentimentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.SentimentRecord, 0, len(s.sentiments[profileID]))
	for _, r := range s.sentiments[profileID] {
		out = append(out, *r)
	}
	return out
}

func (s *Store) ListSentiments() []types.SentimentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.SentimentRecord
	for _, recs := range s.sentiments {
		for _, r := range recs {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AnalyzedAt.Before(out[j].AnalyzedAt) })
	return out
}

// ---- Flags ----

func (s *Store) AppendFlag(f *types.Flag) {
	if f == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *f
	s.flags[f.ProfileID] = append(s.flags[f.ProfileID], &cp)
	if !cp.IsResolved {
		s.flaggedProfilesCount++
	}
}

// UnresolvedFlag returns a copy of the unresolved flag for (profileID, reason),
// or for any reason when reason is empty.
func (s *Store) UnresolvedFlag(profileID uuid.UUID, reason types.FlagReason) (*types.Flag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.flags[profileID]) - 1; i >= 0; i-- {
		f := s.flags[profileID][i]
		if f.IsResolved {
			continue
		}
		if reason != "" && f.Reason != reason {
			continue
		}
		cp := *f
		return &cp, true
	}
	return nil, false
}

// UpdateFlags applies fn to the profile's flags (most recent last) under the
// lock. fn reports whether it resolved a previously unresolved flag so the
// aggregate counter can be decremented, floored at zero.
func (s *Store) UpdateFlags(profileID uuid.UUID, fn func(flags []*types.Flag) (resolved bool)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	flags, ok := s.flags[profileID]
	if !ok || len(flags) == 0 {
		return false
	}
	if fn(flags) && s.flaggedProfilesCount > 0 {
		s.flaggedProfilesCount--
	}
	return true
}

func (s *Store) FlagsFor(profileID uuid.UUID) []types.Flag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Flag, 0, len(s.flags[profileID]))
	for _, f := range s.flags[profileID] {
		out = append(out, *f)
	}
	return out
}

func (s *Store) ListFlags() []types.Flag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Flag
	for _, flags := range s.flags {
		for _, f := range flags {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FlaggedAt.Before(out[j].FlaggedAt) })
	return out
}

func (s *Store) FlaggedProfilesCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flaggedProfilesCount
}
