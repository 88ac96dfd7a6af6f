package core

import (
	"context"
	"log/slog"
	"strings"

	"eventreg/entity"
	"eventreg/impl/review"
	"eventreg/lib/apperr"
	"eventreg/lib/sl"
	"eventreg/lib/validate"
)

// Enroll registers submitterID for an activity. Students may only enroll themselves;
// an empty submitterID means the caller.
func (c *Core) Enroll(ctx context.Context, user *entity.User, activityID, submitterID string) (*entity.Registration, error) {
	submitterID = strings.TrimSpace(submitterID)
	if submitterID == "" {
		submitterID = user.SubmitterID
	}
	if submitterID == "" {
		return nil, c.failed("enroll", apperr.New(apperr.CodeValidation, "submitter_id is required").WithMeta("fields", "submitter_id"))
	}
	if err := requireOwner(user, submitterID); err != nil {
		return nil, c.failed("enroll", err)
	}

	reg, err := c.admission.Enroll(ctx, actorOf(user), submitterID, activityID)
	if err != nil {
		return nil, c.failed("enroll", err,
			sl.Activity(activityID),
			sl.Submitter(submitterID),
		)
	}
	c.log.With(
		slog.String("registration_id", reg.ID),
		sl.Activity(activityID),
		sl.Submitter(submitterID),
	).Info("enrollment accepted")
	return reg, nil
}

func (c *Core) DecideRegistration(ctx context.Context, user *entity.User, id string, req *entity.DecisionRequest) (*entity.Registration, error) {
	if err := requireAdmin(user); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, c.failed("decide registration", err)
	}
	reg, tr, err := c.admission.Decide(ctx, id, review.Decision{
		Action: req.Action,
		Actor:  actorOf(user),
		Reason: req.Reason,
	})
	if err != nil {
		return nil, c.failed("decide registration", err, slog.String("registration_id", id))
	}
	c.log.With(
		slog.String("registration_id", id),
		slog.String("from", string(tr.From)),
		slog.String("to", string(tr.To)),
		slog.Bool("slot_held", reg.SlotHeld),
		sl.User(actorOf(user)),
	).Info("registration reviewed")
	return reg, nil
}

func (c *Core) CancelRegistration(ctx context.Context, user *entity.User, id string) (*entity.Registration, error) {
	current, err := c.store.GetRegistration(ctx, id)
	if err != nil {
		return nil, c.failed("cancel registration", err, slog.String("registration_id", id))
	}
	if err = requireOwner(user, current.SubmitterID); err != nil {
		return nil, c.failed("cancel registration", err)
	}
	reg, err := c.admission.Cancel(ctx, id, actorOf(user))
	if err != nil {
		return nil, c.failed("cancel registration", err, slog.String("registration_id", id))
	}
	c.log.With(
		slog.String("registration_id", id),
		sl.User(actorOf(user)),
	).Info("registration cancelled")
	return reg, nil
}

func (c *Core) GetRegistration(ctx context.Context, user *entity.User, id string) (*entity.Registration, error) {
	reg, err := c.store.GetRegistration(ctx, id)
	if err != nil {
		return nil, c.failed("get registration", err, slog.String("registration_id", id))
	}
	if err = requireOwner(user, reg.SubmitterID); err != nil {
		return nil, c.failed("get registration", notFound("registration", id))
	}
	return reg, nil
}

// ListRegistrations scopes students to their own registrations.
func (c *Core) ListRegistrations(ctx context.Context, user *entity.User, f entity.Filter) ([]entity.Registration, error) {
	if !user.IsAdmin() {
		if user.SubmitterID == "" {
			return []entity.Registration{}, nil
		}
		f.SubmitterID = user.SubmitterID
	}
	items, err := c.query.Registrations(ctx, f)
	if err != nil {
		return nil, c.failed("list registrations", err)
	}
	return items, nil
}

func notFound(kind, id string) error {
	return apperr.Newf(apperr.CodeNotFound, "%s %s not found", kind, id)
}
