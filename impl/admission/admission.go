// Package admission runs enrollment attempts and the registration review pipeline.
//
// An enrollment evaluates every precondition and takes its ledger slot inside one
// unit of work. There is no waiting for a slot: a full activity fails fast.
package admission

import (
	"context"
	"time"

	"eventreg/entity"
	"eventreg/impl/ledger"
	"eventreg/impl/review"
	"eventreg/internal/observability"
	"eventreg/internal/storage"
	"eventreg/lib/apperr"
	"eventreg/lib/clock"

	"github.com/google/uuid"
)

const CancelReason = "cancelled by submitter"

type Options struct {
	// ReleaseOnPendingReject frees the slot when a still-pending registration is
	// rejected. Off by default: a slot is held from request time until withdrawal.
	ReleaseOnPendingReject bool
}

type Controller struct {
	store   storage.Store
	machine *review.Machine
	now     clock.Clock
	opts    Options
}

func New(store storage.Store, machine *review.Machine, now clock.Clock, opts Options) *Controller {
	if now == nil {
		now = clock.System
	}
	return &Controller{
		store:   store,
		machine: machine,
		now:     now,
		opts:    opts,
	}
}

// Enroll creates a pending registration for submitterID and reserves its slot.
func (c *Controller) Enroll(ctx context.Context, actor, submitterID, activityID string) (*entity.Registration, error) {
	start := time.Now()
	var reg *entity.Registration

	err := c.store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		a, err := tx.ActivityForUpdate(ctx, activityID)
		if err != nil {
			return err
		}
		if a.Status != entity.StatusApproved {
			return apperr.Newf(apperr.CodeNotFound, "activity %s is not open for enrollment", activityID)
		}

		active, err := tx.ActiveRegistration(ctx, submitterID, activityID)
		if err != nil {
			return apperr.Storage("find registration", err)
		}
		if active != nil {
			return apperr.New(apperr.CodeAlreadyRegistered, "submitter already holds a registration for this activity").
				WithMeta("registration_id", active.ID)
		}

		if err = checkSchedule(ctx, tx, submitterID, a); err != nil {
			return err
		}

		if err = ledger.ReserveTx(ctx, tx, activityID); err != nil {
			return err
		}

		now := c.now()
		reg = &entity.Registration{
			ID:          uuid.NewString(),
			SubmitterID: submitterID,
			ActivityID:  activityID,
			RequestedAt: now,
			SlotHeld:    true,
			Review:      entity.Review{Status: entity.StatusPending},
		}
		if err = tx.InsertRegistration(ctx, reg); err != nil {
			return apperr.Storage("insert registration", err)
		}
		if err = tx.AppendEvent(ctx, review.Created(entity.KindRegistration, reg.ID, actor, now, reg)); err != nil {
			return apperr.Storage("append review event", err)
		}
		return nil
	})

	observability.ObserveUnit("enroll", start)
	observability.RecordAdmission(outcome(err))
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func checkSchedule(ctx context.Context, tx storage.Tx, submitterID string, target *entity.Activity) error {
	schedule, err := tx.ApprovedSchedule(ctx, submitterID)
	if err != nil {
		return apperr.Storage("load schedule", err)
	}
	for i := range schedule {
		other := &schedule[i]
		if other.ID == target.ID {
			continue
		}
		if target.Overlaps(other) {
			return apperr.Newf(apperr.CodeDateOverlap, "activity overlaps with %s", other.Name).
				WithMeta("activity_id", other.ID)
		}
	}
	return nil
}

// Decide approves or rejects a registration. Rejecting an approved registration
// is a withdrawal and releases its slot.
func (c *Controller) Decide(ctx context.Context, id string, d review.Decision) (*entity.Registration, review.Transition, error) {
	return c.run(ctx, "decide_registration", c.pipeline(nil), id, d)
}

// WithdrawApproval rejects an already approved registration and releases its slot.
func (c *Controller) WithdrawApproval(ctx context.Context, id, actor, reason string) (*entity.Registration, error) {
	onlyApproved := func(r *entity.Registration) error {
		if r.Status != entity.StatusApproved {
			return apperr.Newf(apperr.CodeInvalidTransition, "registration %s is %s, not approved", r.ID, r.Status)
		}
		return nil
	}
	reg, _, err := c.run(ctx, "withdraw_registration", c.pipeline(onlyApproved), id, review.Decision{
		Action: entity.ActionReject,
		Actor:  actor,
		Reason: reason,
	})
	return reg, err
}

// Cancel withdraws a registration on behalf of its submitter and releases its slot.
func (c *Controller) Cancel(ctx context.Context, id, actor string) (*entity.Registration, error) {
	reg, _, err := c.run(ctx, "cancel_registration", c.pipeline(nil), id, review.Decision{
		Action: entity.ActionCancel,
		Actor:  actor,
		Reason: CancelReason,
	})
	return reg, err
}

func (c *Controller) run(ctx context.Context, op string, p review.Pipeline[*entity.Registration], id string, d review.Decision) (*entity.Registration, review.Transition, error) {
	start := time.Now()
	var (
		reg *entity.Registration
		tr  review.Transition
	)
	err := c.store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		reg, tr, err = review.Decide(ctx, c.machine, tx, p, id, d)
		return err
	})
	observability.ObserveUnit(op, start)
	if err != nil {
		return nil, tr, err
	}
	return reg, tr, nil
}

func (c *Controller) pipeline(guard func(r *entity.Registration) error) review.Pipeline[*entity.Registration] {
	return review.Pipeline[*entity.Registration]{
		Load: func(ctx context.Context, tx storage.Tx, id string) (*entity.Registration, error) {
			r, err := tx.RegistrationForUpdate(ctx, id)
			if err != nil {
				return nil, err
			}
			if guard != nil {
				if err = guard(r); err != nil {
					return nil, err
				}
			}
			return r, nil
		},
		Save: func(ctx context.Context, tx storage.Tx, r *entity.Registration) error {
			return tx.UpdateRegistration(ctx, r)
		},
		Effect: c.releaseEffect,
	}
}

func (c *Controller) releaseEffect(ctx context.Context, tx storage.Tx, r *entity.Registration, tr review.Transition) error {
	if tr.To != entity.StatusRejected || !r.SlotHeld {
		return nil
	}
	release := tr.From == entity.StatusApproved ||
		tr.Action == entity.ActionCancel ||
		c.opts.ReleaseOnPendingReject
	if !release {
		return nil
	}
	if err := ledger.ReleaseTx(ctx, tx, r.ActivityID); err != nil {
		return err
	}
	r.SlotHeld = false
	return nil
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apperr.CodeOf(err))
}
