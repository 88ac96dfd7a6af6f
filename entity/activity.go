package entity

import (
	"net/http"
	"time"

	"eventreg/lib/apperr"
	"eventreg/lib/validate"
)

// Activity is a capacity-limited offering. Capacity stays nil until approval;
// Accepted and Open are the ledger counters owned by the admission path.
type Activity struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	StartAt       time.Time `json:"start_date"`
	EndAt         time.Time `json:"end_date"`
	Location      string    `json:"location"`
	Mode          string    `json:"mode"`
	Organization  string    `json:"organization"`
	WebsiteLink   string    `json:"website_link,omitempty"`
	EligibleDepts []string  `json:"eligible_dept,omitempty"`
	Capacity      *int      `json:"capacity,omitempty"`
	Accepted      int       `json:"accepted"`
	Open          int       `json:"open"`
	Review
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Activity) ReviewKind() Kind {
	return KindActivity
}

func (a *Activity) ReviewID() string {
	return a.ID
}

// Overlaps reports whether the two closed intervals intersect.
func (a *Activity) Overlaps(b *Activity) bool {
	return !a.StartAt.After(b.EndAt) && !a.EndAt.Before(b.StartAt)
}

// LedgerConsistent checks accepted + open == capacity for approved activities.
func (a *Activity) LedgerConsistent() bool {
	if a.Accepted < 0 || a.Open < 0 {
		return false
	}
	if a.Status != StatusApproved || a.Capacity == nil {
		return true
	}
	return a.Accepted+a.Open == *a.Capacity
}

// ApplyApproval stores the approval-time fields. Counters are opened by the ledger.
func (a *Activity) ApplyApproval(f *ApprovalFields) error {
	if f == nil || f.Capacity == nil {
		return apperr.New(apperr.CodeValidation, "capacity is required to approve an activity").WithMeta("fields", "capacity")
	}
	if *f.Capacity < 0 {
		return apperr.New(apperr.CodeValidation, "capacity must not be negative").WithMeta("fields", "capacity")
	}
	if len(f.EligibleDepts) == 0 {
		return apperr.New(apperr.CodeValidation, "eligible_dept is required to approve an activity").WithMeta("fields", "eligible_dept")
	}
	capacity := *f.Capacity
	a.Capacity = &capacity
	a.EligibleDepts = append([]string(nil), f.EligibleDepts...)
	return nil
}

// ApprovalFields are supplied by the reviewer when approving an activity.
type ApprovalFields struct {
	Capacity      *int     `json:"capacity" validate:"omitempty,min=0"`
	EligibleDepts []string `json:"eligible_dept" validate:"omitempty,dive,required"`
}

type ActivityRequest struct {
	Name         string    `json:"name" validate:"required"`
	Category     string    `json:"category" validate:"required,category"`
	StartAt      time.Time `json:"start_date" validate:"required"`
	EndAt        time.Time `json:"end_date" validate:"required,gtefield=StartAt"`
	Location     string    `json:"location" validate:"required"`
	Mode         string    `json:"mode" validate:"required"`
	Organization string    `json:"organization" validate:"required"`
	WebsiteLink  string    `json:"website_link" validate:"omitempty,url"`
}

func (a *ActivityRequest) Bind(_ *http.Request) error {
	return validate.Struct(a)
}
