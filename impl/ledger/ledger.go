// Package ledger owns the capacity counters of an approved activity.
//
// The counter pair is read and written only through a locking read inside the
// caller's unit of work, so the check and the mutation cannot interleave with
// another caller on the same activity.
package ledger

import (
	"context"

	"eventreg/entity"
	"eventreg/internal/observability"
	"eventreg/internal/storage"
	"eventreg/lib/apperr"
)

type Ledger struct {
	store storage.Store
}

func New(store storage.Store) *Ledger {
	return &Ledger{store: store}
}

// Reserve takes one slot in its own unit of work.
func (l *Ledger) Reserve(ctx context.Context, activityID string) error {
	return l.store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return ReserveTx(ctx, tx, activityID)
	})
}

// Release returns one slot in its own unit of work.
func (l *Ledger) Release(ctx context.Context, activityID string) error {
	return l.store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return ReleaseTx(ctx, tx, activityID)
	})
}

// ReserveTx increments accepted and decrements open, or fails with event_full
// leaving the counters untouched. An activity without capacity is unlimited.
func ReserveTx(ctx context.Context, tx storage.Tx, activityID string) error {
	a, err := tx.ActivityForUpdate(ctx, activityID)
	if err != nil {
		return err
	}
	if a.Status != entity.StatusApproved {
		observability.RecordLedger("reserve", "not_found")
		return apperr.Newf(apperr.CodeNotFound, "activity %s is not open for enrollment", activityID)
	}

	accepted, open := a.Accepted, a.Open
	if a.Capacity != nil {
		if open <= 0 || accepted >= *a.Capacity {
			observability.RecordLedger("reserve", "full")
			return apperr.New(apperr.CodeEventFull, "no open slots left").WithMeta("activity_id", activityID)
		}
		open--
	}
	accepted++

	if err = tx.UpdateLedger(ctx, activityID, accepted, open); err != nil {
		return apperr.Storage("update ledger", err)
	}
	observability.RecordLedger("reserve", "ok")
	return nil
}

// ReleaseTx is the inverse of ReserveTx, clamped so accepted never drops below
// zero and open never exceeds capacity.
func ReleaseTx(ctx context.Context, tx storage.Tx, activityID string) error {
	a, err := tx.ActivityForUpdate(ctx, activityID)
	if err != nil {
		return err
	}

	accepted, open := a.Accepted, a.Open
	if accepted > 0 {
		accepted--
	}
	if a.Capacity != nil {
		open++
		if open > *a.Capacity {
			open = *a.Capacity
		}
		if accepted+open > *a.Capacity {
			accepted = *a.Capacity - open
		}
	}

	if err = tx.UpdateLedger(ctx, activityID, accepted, open); err != nil {
		return apperr.Storage("update ledger", err)
	}
	observability.RecordLedger("release", "ok")
	return nil
}

// Initialize opens the counters of a freshly approved activity.
func Initialize(a *entity.Activity) {
	a.Accepted = 0
	a.Open = 0
	if a.Capacity != nil {
		a.Open = *a.Capacity
	}
	observability.RecordLedger("initialize", "ok")
}

// Snapshot reads the counters of one activity from committed state.
func (l *Ledger) Snapshot(ctx context.Context, activityID string) (*Counters, error) {
	a, err := l.store.GetActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	return &Counters{
		ActivityID: a.ID,
		Capacity:   a.Capacity,
		Accepted:   a.Accepted,
		Open:       a.Open,
	}, nil
}

type Counters struct {
	ActivityID string `json:"activity_id"`
	Capacity   *int   `json:"capacity,omitempty"`
	Accepted   int    `json:"accepted"`
	Open       int    `json:"open"`
}
