// Package memory is an in-process store used in local mode and tests.
// Writes are staged per unit of work and applied under one lock on commit.
package memory

import (
	"context"
	"sort"
	"sync"

	"eventreg/entity"
	"eventreg/internal/storage"
	"eventreg/lib/apperr"
)

type Store struct {
	mu            sync.RWMutex
	activities    map[string]entity.Activity
	registrations map[string]entity.Registration
	records       map[string]entity.AchievementRecord
	events        []entity.ReviewEvent
	claimed       map[int64]bool
	published     map[int64]bool
	locks         *rowLocks
}

func New() *Store {
	return &Store{
		activities:    make(map[string]entity.Activity),
		registrations: make(map[string]entity.Registration),
		records:       make(map[string]entity.AchievementRecord),
		claimed:       make(map[int64]bool),
		published:     make(map[int64]bool),
		locks:         newRowLocks(),
	}
}

var _ storage.Store = (*Store)(nil)
var _ storage.EventSource = (*Store)(nil)

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return apperr.Storage("begin transaction", err)
	}
	t := newTx(s)
	defer t.unlockAll()

	if err := fn(ctx, t); err != nil {
		return err
	}
	s.commit(t)
	return nil
}

func (s *Store) commit(t *tx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, a := range t.activities {
		s.activities[id] = a
	}
	for id, r := range t.registrations {
		s.registrations[id] = r
	}
	for id, r := range t.records {
		s.records[id] = r
	}
	for _, e := range t.events {
		e.ID = int64(len(s.events) + 1)
		s.events = append(s.events, e)
	}
}

func (s *Store) GetActivity(_ context.Context, id string) (*entity.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.activities[id]
	if !ok {
		return nil, apperr.Newf(apperr.CodeNotFound, "activity %s not found", id)
	}
	return cloneActivity(a), nil
}

func (s *Store) GetRegistration(_ context.Context, id string) (*entity.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.registrations[id]
	if !ok {
		return nil, apperr.Newf(apperr.CodeNotFound, "registration %s not found", id)
	}
	return cloneRegistration(r), nil
}

func (s *Store) GetRecord(_ context.Context, id string) (*entity.AchievementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, apperr.Newf(apperr.CodeNotFound, "achievement record %s not found", id)
	}
	return cloneRecord(r), nil
}

func (s *Store) ListActivities(_ context.Context, f entity.Filter) ([]entity.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]entity.Activity, 0)
	for _, a := range s.activities {
		if !f.MatchActivity(a.ID) || !f.MatchCategory(a.Category) || !f.MatchStatus(a.Status) || !f.MatchSubmitter(a.CreatedBy) {
			continue
		}
		result = append(result, *cloneActivity(a))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) ListRegistrations(_ context.Context, f entity.Filter) ([]entity.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]entity.Registration, 0)
	for _, r := range s.registrations {
		if !f.MatchActivity(r.ActivityID) || !f.MatchStatus(r.Status) || !f.MatchSubmitter(r.SubmitterID) {
			continue
		}
		if len(f.Categories) > 0 {
			a, ok := s.activities[r.ActivityID]
			if !ok || !f.MatchCategory(a.Category) {
				continue
			}
		}
		result = append(result, *cloneRegistration(r))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].RequestedAt.Equal(result[j].RequestedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].RequestedAt.Before(result[j].RequestedAt)
	})
	return result, nil
}

func (s *Store) ListRecords(_ context.Context, f entity.Filter) ([]entity.AchievementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]entity.AchievementRecord, 0)
	for _, r := range s.records {
		if !f.MatchActivity(r.ActivityID) || !f.MatchCategory(r.Category) || !f.MatchStatus(r.Status) ||
			!f.MatchSubmitter(r.SubmitterID) || !f.MatchCohort(r.CohortEndYear) {
			continue
		}
		result = append(result, *cloneRecord(r))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) ClaimEvents(_ context.Context, limit int) ([]entity.ReviewEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]entity.ReviewEvent, 0, limit)
	for _, e := range s.events {
		if len(result) == limit {
			break
		}
		if s.claimed[e.ID] || s.published[e.ID] {
			continue
		}
		s.claimed[e.ID] = true
		result = append(result, e)
	}
	return result, nil
}

func (s *Store) MarkPublished(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.claimed, id)
		s.published[id] = true
	}
	return nil
}

func (s *Store) ReleaseClaims(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.claimed, id)
	}
	return nil
}

// Events returns a snapshot of the audit trail in append order.
func (s *Store) Events() []entity.ReviewEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]entity.ReviewEvent, len(s.events))
	copy(result, s.events)
	return result
}

func cloneActivity(a entity.Activity) *entity.Activity {
	if a.Capacity != nil {
		c := *a.Capacity
		a.Capacity = &c
	}
	if a.ConfirmedAt != nil {
		t := *a.ConfirmedAt
		a.ConfirmedAt = &t
	}
	a.EligibleDepts = append([]string(nil), a.EligibleDepts...)
	return &a
}

func cloneRegistration(r entity.Registration) *entity.Registration {
	if r.ConfirmedAt != nil {
		t := *r.ConfirmedAt
		r.ConfirmedAt = &t
	}
	return &r
}

func cloneRecord(r entity.AchievementRecord) *entity.AchievementRecord {
	if r.ConfirmedAt != nil {
		t := *r.ConfirmedAt
		r.ConfirmedAt = &t
	}
	return &r
}
