// Package review drives the pending/approved/rejected workflow shared by
// activities, registrations and achievement records.
package review

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"eventreg/entity"
	"eventreg/internal/observability"
	"eventreg/internal/storage"
	"eventreg/lib/apperr"
	"eventreg/lib/clock"
)

// Decision is one request against the state machine.
type Decision struct {
	Action   entity.Action
	Actor    string
	Reason   string
	Approval *entity.ApprovalFields
}

// Transition describes an applied change. Changed is false for idempotent no-ops.
type Transition struct {
	Kind    entity.Kind
	ID      string
	Action  entity.Action
	From    entity.Status
	To      entity.Status
	Actor   string
	Reason  string
	At      time.Time
	Changed bool
}

// approvable is implemented by kinds with mandatory approval-time fields.
type approvable interface {
	ApplyApproval(f *entity.ApprovalFields) error
}

type Machine struct {
	policy *Policy
	now    clock.Clock
}

func NewMachine(policy *Policy, now clock.Clock) *Machine {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if now == nil {
		now = clock.System
	}
	return &Machine{policy: policy, now: now}
}

func (m *Machine) Policy() *Policy {
	return m.policy
}

// Apply mutates subject in memory. Nothing is persisted here.
func (m *Machine) Apply(subject entity.Reviewable, d Decision) (Transition, error) {
	state := subject.ReviewState()
	tr := Transition{
		Kind:   subject.ReviewKind(),
		ID:     subject.ReviewID(),
		Action: d.Action,
		From:   state.Status,
		Actor:  d.Actor,
		Reason: strings.TrimSpace(d.Reason),
		At:     m.now(),
	}

	if (d.Action == entity.ActionReject || d.Action == entity.ActionCancel) && tr.Reason == "" {
		return tr, apperr.New(apperr.CodeValidation, "rejection reason is required").WithMeta("fields", "reason")
	}

	to, err := m.policy.Next(tr.Kind, state.Status, d.Action)
	if err != nil {
		return tr, err
	}
	tr.To = to
	if to == state.Status {
		return tr, nil
	}

	if d.Action == entity.ActionApprove {
		if a, ok := subject.(approvable); ok {
			if err = a.ApplyApproval(d.Approval); err != nil {
				return tr, err
			}
		}
	}

	state.Status = to
	switch to {
	case entity.StatusApproved:
		at := tr.At
		state.ConfirmedBy = d.Actor
		state.ConfirmedAt = &at
		state.RejectionReason = ""
	case entity.StatusRejected:
		at := tr.At
		state.ConfirmedBy = d.Actor
		state.ConfirmedAt = &at
		state.RejectionReason = tr.Reason
	case entity.StatusDeleted:
		state.RejectionReason = ""
	}
	tr.Changed = true
	return tr, nil
}

// Pipeline binds the machine to one entity kind's storage.
type Pipeline[T entity.Reviewable] struct {
	Load func(ctx context.Context, tx storage.Tx, id string) (T, error)
	Save func(ctx context.Context, tx storage.Tx, item T) error
	// Effect runs after the transition is applied and before it is saved.
	Effect func(ctx context.Context, tx storage.Tx, item T, tr Transition) error
}

// Decide loads, transitions, persists and audits one entity inside tx.
func Decide[T entity.Reviewable](ctx context.Context, m *Machine, tx storage.Tx, p Pipeline[T], id string, d Decision) (T, Transition, error) {
	item, err := p.Load(ctx, tx, id)
	if err != nil {
		var zero T
		return zero, Transition{}, err
	}

	tr, err := m.Apply(item, d)
	if err != nil {
		observability.RecordTransition(string(tr.Kind), string(d.Action), string(apperr.CodeOf(err)))
		return item, tr, err
	}
	if !tr.Changed {
		observability.RecordTransition(string(tr.Kind), string(d.Action), "noop")
		return item, tr, nil
	}

	if p.Effect != nil {
		if err = p.Effect(ctx, tx, item, tr); err != nil {
			return item, tr, err
		}
	}
	if err = p.Save(ctx, tx, item); err != nil {
		return item, tr, apperr.Storage("save "+string(tr.Kind), err)
	}
	if err = tx.AppendEvent(ctx, EventOf(tr, item)); err != nil {
		return item, tr, apperr.Storage("append review event", err)
	}
	observability.RecordTransition(string(tr.Kind), string(d.Action), "ok")
	return item, tr, nil
}

// EventOf builds the audit record for a transition.
func EventOf(tr Transition, item any) *entity.ReviewEvent {
	payload, _ := json.Marshal(item)
	return &entity.ReviewEvent{
		Kind:       tr.Kind,
		EntityID:   tr.ID,
		Action:     string(tr.Action),
		FromStatus: tr.From,
		ToStatus:   tr.To,
		Actor:      tr.Actor,
		Reason:     tr.Reason,
		OccurredAt: tr.At,
		Payload:    payload,
	}
}

// Created builds the audit record for a newly submitted entity.
func Created(kind entity.Kind, id, actor string, at time.Time, item any) *entity.ReviewEvent {
	payload, _ := json.Marshal(item)
	return &entity.ReviewEvent{
		Kind:       kind,
		EntityID:   id,
		Action:     "created",
		ToStatus:   entity.StatusPending,
		Actor:      actor,
		OccurredAt: at,
		Payload:    payload,
	}
}
