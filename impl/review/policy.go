package review

import (
	"fmt"

	"eventreg/entity"
	"eventreg/lib/apperr"
)

type edge struct {
	from   entity.Status
	action entity.Action
}

// Policy is a static transition graph per entity kind.
type Policy struct {
	graph map[entity.Kind]map[edge]entity.Status
}

// DefaultPolicy returns the review graph shared by all three pipelines.
// Withdrawing an approved registration and submitter cancellation are the only
// exits from approved; deleted is reachable only for activities.
func DefaultPolicy() *Policy {
	common := map[edge]entity.Status{
		{entity.StatusPending, entity.ActionApprove}: entity.StatusApproved,
		{entity.StatusPending, entity.ActionReject}:  entity.StatusRejected,
	}

	activity := clone(common)
	for _, s := range []entity.Status{entity.StatusPending, entity.StatusApproved, entity.StatusRejected, entity.StatusDeleted} {
		activity[edge{s, entity.ActionDelete}] = entity.StatusDeleted
	}

	registration := clone(common)
	registration[edge{entity.StatusApproved, entity.ActionReject}] = entity.StatusRejected
	registration[edge{entity.StatusPending, entity.ActionCancel}] = entity.StatusRejected
	registration[edge{entity.StatusApproved, entity.ActionCancel}] = entity.StatusRejected

	return &Policy{graph: map[entity.Kind]map[edge]entity.Status{
		entity.KindActivity:     activity,
		entity.KindRegistration: registration,
		entity.KindRecord:       clone(common),
	}}
}

// Next resolves the target status or fails with invalid_transition.
func (p *Policy) Next(kind entity.Kind, from entity.Status, action entity.Action) (entity.Status, error) {
	edges, ok := p.graph[kind]
	if !ok {
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
	to, ok := edges[edge{from, action}]
	if !ok {
		return "", apperr.Newf(apperr.CodeInvalidTransition, "cannot %s %s in status %s", action, kind, from).
			WithMeta("from", string(from))
	}
	return to, nil
}

// Allowed lists the actions available from a status.
func (p *Policy) Allowed(kind entity.Kind, from entity.Status) []entity.Action {
	var result []entity.Action
	for e := range p.graph[kind] {
		if e.from == from {
			result = append(result, e.action)
		}
	}
	return result
}

func clone(m map[edge]entity.Status) map[edge]entity.Status {
	out := make(map[edge]entity.Status, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
