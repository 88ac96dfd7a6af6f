package entity

import (
	"net/http"
	"time"

	"eventreg/lib/validate"
)

// Registration is one submitter's enrollment request. SlotHeld is true while the
// registration still owns a ledger slot on its activity.
type Registration struct {
	ID          string    `json:"id"`
	SubmitterID string    `json:"submitter_id"`
	ActivityID  string    `json:"activity_id"`
	RequestedAt time.Time `json:"requested_at"`
	SlotHeld    bool      `json:"slot_held"`
	Review
}

func (r *Registration) ReviewKind() Kind {
	return KindRegistration
}

func (r *Registration) ReviewID() string {
	return r.ID
}

type EnrollRequest struct {
	SubmitterID string `json:"submitter_id" validate:"omitempty,max=64"`
}

func (e *EnrollRequest) Bind(_ *http.Request) error {
	return validate.Struct(e)
}
