package entity

import (
	"net/http"

	"eventreg/lib/validate"
)

// DecisionRequest is a reviewer's approve or reject call. Approval fields apply to
// activities only.
type DecisionRequest struct {
	Action Action `json:"action" validate:"required,oneof=approve reject"`
	Reason string `json:"reason" validate:"max=1000"`
	ApprovalFields
}

func (d *DecisionRequest) Bind(_ *http.Request) error {
	return validate.Struct(d)
}
