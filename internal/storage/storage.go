// Package storage defines the unit of work the core runs against.
//
// Every admission or review call executes inside Store.WithinTx. Locking reads
// (the *ForUpdate methods) hold the row until the unit of work ends; callers take
// locks in the order Registration, then Activity.
package storage

import (
	"context"

	"eventreg/entity"
)

type Tx interface {
	Activity(ctx context.Context, id string) (*entity.Activity, error)
	ActivityForUpdate(ctx context.Context, id string) (*entity.Activity, error)
	InsertActivity(ctx context.Context, a *entity.Activity) error
	UpdateActivity(ctx context.Context, a *entity.Activity) error
	UpdateLedger(ctx context.Context, id string, accepted, open int) error

	RegistrationForUpdate(ctx context.Context, id string) (*entity.Registration, error)
	// ActiveRegistration returns the non-rejected registration for the pair, or nil.
	ActiveRegistration(ctx context.Context, submitterID, activityID string) (*entity.Registration, error)
	// ApprovedSchedule returns the activities behind the submitter's approved registrations.
	ApprovedSchedule(ctx context.Context, submitterID string) ([]entity.Activity, error)
	InsertRegistration(ctx context.Context, r *entity.Registration) error
	UpdateRegistration(ctx context.Context, r *entity.Registration) error

	RecordForUpdate(ctx context.Context, id string) (*entity.AchievementRecord, error)
	InsertRecord(ctx context.Context, r *entity.AchievementRecord) error
	UpdateRecord(ctx context.Context, r *entity.AchievementRecord) error

	AppendEvent(ctx context.Context, e *entity.ReviewEvent) error
}

type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	GetActivity(ctx context.Context, id string) (*entity.Activity, error)
	GetRegistration(ctx context.Context, id string) (*entity.Registration, error)
	GetRecord(ctx context.Context, id string) (*entity.AchievementRecord, error)

	ListActivities(ctx context.Context, f entity.Filter) ([]entity.Activity, error)
	ListRegistrations(ctx context.Context, f entity.Filter) ([]entity.Registration, error)
	ListRecords(ctx context.Context, f entity.Filter) ([]entity.AchievementRecord, error)
}

// EventSource is the outbox side of a store.
type EventSource interface {
	ClaimEvents(ctx context.Context, limit int) ([]entity.ReviewEvent, error)
	MarkPublished(ctx context.Context, ids []int64) error
	ReleaseClaims(ctx context.Context, ids []int64) error
}
