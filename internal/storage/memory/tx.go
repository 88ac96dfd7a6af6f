package memory

import (
	"context"

	"eventreg/entity"
	"eventreg/lib/apperr"
)

type tx struct {
	store         *Store
	activities    map[string]entity.Activity
	registrations map[string]entity.Registration
	records       map[string]entity.AchievementRecord
	events        []entity.ReviewEvent
	held          map[string]func()
}

func newTx(s *Store) *tx {
	return &tx{
		store:         s,
		activities:    make(map[string]entity.Activity),
		registrations: make(map[string]entity.Registration),
		records:       make(map[string]entity.AchievementRecord),
		held:          make(map[string]func()),
	}
}

func (t *tx) lock(key string) {
	if _, ok := t.held[key]; ok {
		return
	}
	t.held[key] = t.store.locks.acquire(key)
}

func (t *tx) unlockAll() {
	for key, unlock := range t.held {
		unlock()
		delete(t.held, key)
	}
}

func (t *tx) activity(id string) (entity.Activity, bool) {
	if a, ok := t.activities[id]; ok {
		return a, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	a, ok := t.store.activities[id]
	return a, ok
}

func (t *tx) registration(id string) (entity.Registration, bool) {
	if r, ok := t.registrations[id]; ok {
		return r, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	r, ok := t.store.registrations[id]
	return r, ok
}

func (t *tx) record(id string) (entity.AchievementRecord, bool) {
	if r, ok := t.records[id]; ok {
		return r, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	r, ok := t.store.records[id]
	return r, ok
}

// allRegistrations merges committed rows with the ones staged in this unit of work.
func (t *tx) allRegistrations() []entity.Registration {
	t.store.mu.RLock()
	result := make([]entity.Registration, 0, len(t.store.registrations)+len(t.registrations))
	for id, r := range t.store.registrations {
		if staged, ok := t.registrations[id]; ok {
			r = staged
		}
		result = append(result, r)
	}
	for id, r := range t.registrations {
		if _, ok := t.store.registrations[id]; !ok {
			result = append(result, r)
		}
	}
	t.store.mu.RUnlock()
	return result
}

func (t *tx) Activity(_ context.Context, id string) (*entity.Activity, error) {
	a, ok := t.activity(id)
	if !ok {
		return nil, apperr.Newf(apperr.CodeNotFound, "activity %s not found", id)
	}
	return cloneActivity(a), nil
}

func (t *tx) ActivityForUpdate(ctx context.Context, id string) (*entity.Activity, error) {
	t.lock("activity:" + id)
	return t.Activity(ctx, id)
}

func (t *tx) InsertActivity(_ context.Context, a *entity.Activity) error {
	if _, ok := t.activity(a.ID); ok {
		return apperr.Newf(apperr.CodeStorage, "duplicate activity id %s", a.ID)
	}
	t.lock("activity:" + a.ID)
	t.activities[a.ID] = *cloneActivity(*a)
	return nil
}

func (t *tx) UpdateActivity(_ context.Context, a *entity.Activity) error {
	if _, ok := t.activity(a.ID); !ok {
		return apperr.Newf(apperr.CodeNotFound, "activity %s not found", a.ID)
	}
	t.activities[a.ID] = *cloneActivity(*a)
	return nil
}

func (t *tx) UpdateLedger(_ context.Context, id string, accepted, open int) error {
	a, ok := t.activity(id)
	if !ok {
		return apperr.Newf(apperr.CodeNotFound, "activity %s not found", id)
	}
	a = *cloneActivity(a)
	a.Accepted = accepted
	a.Open = open
	t.activities[id] = a
	return nil
}

func (t *tx) RegistrationForUpdate(_ context.Context, id string) (*entity.Registration, error) {
	t.lock("registration:" + id)
	r, ok := t.registration(id)
	if !ok {
		return nil, apperr.Newf(apperr.CodeNotFound, "registration %s not found", id)
	}
	return cloneRegistration(r), nil
}

func (t *tx) ActiveRegistration(_ context.Context, submitterID, activityID string) (*entity.Registration, error) {
	for _, r := range t.allRegistrations() {
		if r.SubmitterID == submitterID && r.ActivityID == activityID && r.Status != entity.StatusRejected {
			return cloneRegistration(r), nil
		}
	}
	return nil, nil
}

func (t *tx) ApprovedSchedule(_ context.Context, submitterID string) ([]entity.Activity, error) {
	result := make([]entity.Activity, 0)
	for _, r := range t.allRegistrations() {
		if r.SubmitterID != submitterID || r.Status != entity.StatusApproved {
			continue
		}
		a, ok := t.activity(r.ActivityID)
		if !ok || a.Status == entity.StatusDeleted {
			continue
		}
		result = append(result, *cloneActivity(a))
	}
	return result, nil
}

func (t *tx) InsertRegistration(ctx context.Context, r *entity.Registration) error {
	if _, ok := t.registration(r.ID); ok {
		return apperr.Newf(apperr.CodeStorage, "duplicate registration id %s", r.ID)
	}
	if r.Status != entity.StatusRejected {
		active, _ := t.ActiveRegistration(ctx, r.SubmitterID, r.ActivityID)
		if active != nil {
			return apperr.New(apperr.CodeAlreadyRegistered, "submitter already holds a registration for this activity")
		}
	}
	t.lock("registration:" + r.ID)
	t.registrations[r.ID] = *cloneRegistration(*r)
	return nil
}

func (t *tx) UpdateRegistration(_ context.Context, r *entity.Registration) error {
	if _, ok := t.registration(r.ID); !ok {
		return apperr.Newf(apperr.CodeNotFound, "registration %s not found", r.ID)
	}
	t.registrations[r.ID] = *cloneRegistration(*r)
	return nil
}

func (t *tx) RecordForUpdate(_ context.Context, id string) (*entity.AchievementRecord, error) {
	t.lock("record:" + id)
	r, ok := t.record(id)
	if !ok {
		return nil, apperr.Newf(apperr.CodeNotFound, "achievement record %s not found", id)
	}
	return cloneRecord(r), nil
}

func (t *tx) InsertRecord(_ context.Context, r *entity.AchievementRecord) error {
	if _, ok := t.record(r.ID); ok {
		return apperr.Newf(apperr.CodeStorage, "duplicate record id %s", r.ID)
	}
	t.records[r.ID] = *cloneRecord(*r)
	return nil
}

func (t *tx) UpdateRecord(_ context.Context, r *entity.AchievementRecord) error {
	if _, ok := t.record(r.ID); !ok {
		return apperr.Newf(apperr.CodeNotFound, "achievement record %s not found", r.ID)
	}
	t.records[r.ID] = *cloneRecord(*r)
	return nil
}

func (t *tx) AppendEvent(_ context.Context, e *entity.ReviewEvent) error {
	t.events = append(t.events, *e)
	return nil
}
