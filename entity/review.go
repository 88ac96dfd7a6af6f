package entity

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusDeleted  Status = "deleted"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusDeleted:
		return true
	}
	return false
}

// Kind names one of the three review pipelines.
type Kind string

const (
	KindActivity     Kind = "activity"
	KindRegistration Kind = "registration"
	KindRecord       Kind = "achievement_record"
)

// Action is a reviewer's request against a pipeline entity.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionDelete  Action = "delete"
	ActionCancel  Action = "cancel"
)

// Review holds the status and audit fields shared by every reviewable entity.
// RejectionReason is set only while Status is rejected.
type Review struct {
	Status          Status     `json:"status"`
	ConfirmedBy     string     `json:"confirmed_by,omitempty"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
}

func (r *Review) ReviewState() *Review {
	return r
}

// Reviewable is implemented by Activity, Registration and AchievementRecord.
type Reviewable interface {
	ReviewKind() Kind
	ReviewID() string
	ReviewState() *Review
}
