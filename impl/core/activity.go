package core

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"eventreg/entity"
	"eventreg/impl/ledger"
	"eventreg/impl/review"
	"eventreg/internal/observability"
	"eventreg/internal/storage"
	"eventreg/lib/sl"
	"eventreg/lib/validate"

	"github.com/google/uuid"
)

func (c *Core) SubmitActivity(ctx context.Context, user *entity.User, req *entity.ActivityRequest) (*entity.Activity, error) {
	if err := validate.Struct(req); err != nil {
		return nil, c.failed("submit activity", err)
	}
	now := c.now()
	a := &entity.Activity{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Category:     req.Category,
		StartAt:      req.StartAt.UTC(),
		EndAt:        req.EndAt.UTC(),
		Location:     strings.TrimSpace(req.Location),
		Mode:         strings.TrimSpace(req.Mode),
		Organization: strings.TrimSpace(req.Organization),
		WebsiteLink:  strings.TrimSpace(req.WebsiteLink),
		Review:       entity.Review{Status: entity.StatusPending},
		CreatedBy:    actorOf(user),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := c.store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.InsertActivity(ctx, a); err != nil {
			return err
		}
		return tx.AppendEvent(ctx, review.Created(entity.KindActivity, a.ID, a.CreatedBy, now, a))
	})
	if err != nil {
		return nil, c.failed("submit activity", err)
	}
	c.log.With(
		sl.Activity(a.ID),
		sl.User(a.CreatedBy),
	).Info("activity submitted")
	return a, nil
}

func (c *Core) DecideActivity(ctx context.Context, user *entity.User, id string, req *entity.DecisionRequest) (*entity.Activity, error) {
	if err := requireAdmin(user); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, c.failed("decide activity", err)
	}
	approval := req.ApprovalFields
	return c.transitionActivity(ctx, id, review.Decision{
		Action:   req.Action,
		Actor:    actorOf(user),
		Reason:   req.Reason,
		Approval: &approval,
	})
}

// DeleteActivity soft-deletes; repeating it is a successful no-op.
func (c *Core) DeleteActivity(ctx context.Context, user *entity.User, id string) (*entity.Activity, error) {
	if err := requireAdmin(user); err != nil {
		return nil, err
	}
	return c.transitionActivity(ctx, id, review.Decision{
		Action: entity.ActionDelete,
		Actor:  actorOf(user),
	})
}

func (c *Core) transitionActivity(ctx context.Context, id string, d review.Decision) (*entity.Activity, error) {
	start := time.Now()
	var a *entity.Activity
	var tr review.Transition
	err := c.store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		a, tr, err = review.Decide(ctx, c.machine, tx, c.activityPipeline(), id, d)
		return err
	})
	observability.ObserveUnit("decide_activity", start)
	if err != nil {
		return nil, c.failed("decide activity", err, sl.Activity(id), slog.String("action", string(d.Action)))
	}
	if tr.Changed {
		c.log.With(
			sl.Activity(id),
			slog.String("from", string(tr.From)),
			slog.String("to", string(tr.To)),
			sl.User(d.Actor),
		).Info("activity reviewed")
	}
	return a, nil
}

func (c *Core) activityPipeline() review.Pipeline[*entity.Activity] {
	return review.Pipeline[*entity.Activity]{
		Load: func(ctx context.Context, tx storage.Tx, id string) (*entity.Activity, error) {
			return tx.ActivityForUpdate(ctx, id)
		},
		Save: func(ctx context.Context, tx storage.Tx, a *entity.Activity) error {
			return tx.UpdateActivity(ctx, a)
		},
		Effect: func(_ context.Context, _ storage.Tx, a *entity.Activity, tr review.Transition) error {
			a.UpdatedAt = tr.At
			if tr.To == entity.StatusApproved {
				ledger.Initialize(a)
			}
			return nil
		},
	}
}

func (c *Core) GetActivity(ctx context.Context, user *entity.User, id string) (*entity.Activity, error) {
	a, err := c.store.GetActivity(ctx, id)
	if err != nil {
		return nil, c.failed("get activity", err, sl.Activity(id))
	}
	if !user.IsAdmin() && a.Status != entity.StatusApproved && a.CreatedBy != actorOf(user) {
		return nil, c.failed("get activity", notFound("activity", id))
	}
	return a, nil
}

// ListActivities shows students approved activities only.
func (c *Core) ListActivities(ctx context.Context, user *entity.User, f entity.Filter) ([]entity.Activity, error) {
	if !user.IsAdmin() {
		f.Statuses = []entity.Status{entity.StatusApproved}
	}
	items, err := c.query.Activities(ctx, f)
	if err != nil {
		return nil, c.failed("list activities", err)
	}
	return items, nil
}
