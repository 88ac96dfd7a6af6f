package core

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"eventreg/entity"
	"eventreg/impl/review"
	"eventreg/internal/observability"
	"eventreg/internal/storage"
	"eventreg/lib/apperr"
	"eventreg/lib/sl"
	"eventreg/lib/validate"

	"github.com/google/uuid"
)

// SubmitRecord stores the attachment and creates a pending achievement record.
// When a directory is connected, the submitter must exist there and the profile's
// name and cohort replace the submitted ones.
func (c *Core) SubmitRecord(ctx context.Context, user *entity.User, req *entity.RecordRequest, file io.Reader, att *entity.Attachment) (*entity.AchievementRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, c.failed("submit record", err)
	}
	if file == nil || att == nil || att.Name == "" {
		return nil, c.failed("submit record", apperr.New(apperr.CodeValidation, "attachment is required").WithMeta("fields", "attachment"))
	}
	if err := requireOwner(user, req.SubmitterID); err != nil {
		return nil, c.failed("submit record", err)
	}
	if c.files == nil {
		return nil, c.failed("submit record", apperr.New(apperr.CodeStorage, "attachment store not connected"))
	}

	if c.directory != nil {
		profile, err := c.directory.Profile(ctx, req.SubmitterID)
		if err != nil {
			return nil, c.failed("submit record", err, sl.Submitter(req.SubmitterID))
		}
		if profile.DisplayName != "" {
			req.DisplayName = profile.DisplayName
		}
		if profile.CohortEndYear != 0 {
			req.CohortEndYear = profile.CohortEndYear
		}
	}

	ref, err := c.files.Save(ctx, uuid.NewString()+strings.ToLower(filepath.Ext(att.Name)), file)
	if err != nil {
		return nil, c.failed("store attachment", err)
	}

	now := c.now()
	rec := &entity.AchievementRecord{
		ID:            uuid.NewString(),
		SubmitterID:   req.SubmitterID,
		DisplayName:   strings.TrimSpace(req.DisplayName),
		CohortEndYear: req.CohortEndYear,
		ActivityID:    req.ActivityID,
		ActivityName:  strings.TrimSpace(req.ActivityName),
		Category:      req.Category,
		Organizer:     strings.TrimSpace(req.Organizer),
		StartAt:       req.StartAt.UTC(),
		EndAt:         req.EndAt.UTC(),
		Description:   strings.TrimSpace(req.Description),
		Attachment:    ref,
		CreatedAt:     now,
		Review:        entity.Review{Status: entity.StatusPending},
	}

	err = c.store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.InsertRecord(ctx, rec); err != nil {
			return err
		}
		return tx.AppendEvent(ctx, review.Created(entity.KindRecord, rec.ID, actorOf(user), now, rec))
	})
	if err != nil {
		if rmErr := c.files.Remove(ctx, ref); rmErr != nil {
			c.log.With(slog.String("attachment", ref)).Warn("removing orphan attachment", sl.Err(rmErr))
		}
		return nil, c.failed("submit record", err)
	}
	c.log.With(
		slog.String("record_id", rec.ID),
		sl.Submitter(rec.SubmitterID),
	).Info("achievement record submitted")
	return rec, nil
}

func (c *Core) DecideRecord(ctx context.Context, user *entity.User, id string, req *entity.DecisionRequest) (*entity.AchievementRecord, error) {
	if err := requireAdmin(user); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, c.failed("decide record", err)
	}

	start := time.Now()
	var rec *entity.AchievementRecord
	err := c.store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		rec, _, err = review.Decide(ctx, c.machine, tx, recordPipeline, id, review.Decision{
			Action: req.Action,
			Actor:  actorOf(user),
			Reason: req.Reason,
		})
		return err
	})
	observability.ObserveUnit("decide_record", start)
	if err != nil {
		return nil, c.failed("decide record", err, slog.String("record_id", id))
	}
	c.log.With(
		slog.String("record_id", id),
		slog.String("status", string(rec.Status)),
		sl.User(actorOf(user)),
	).Info("achievement record reviewed")
	return rec, nil
}

var recordPipeline = review.Pipeline[*entity.AchievementRecord]{
	Load: func(ctx context.Context, tx storage.Tx, id string) (*entity.AchievementRecord, error) {
		return tx.RecordForUpdate(ctx, id)
	},
	Save: func(ctx context.Context, tx storage.Tx, r *entity.AchievementRecord) error {
		return tx.UpdateRecord(ctx, r)
	},
}

func (c *Core) GetRecord(ctx context.Context, user *entity.User, id string) (*entity.AchievementRecord, error) {
	rec, err := c.store.GetRecord(ctx, id)
	if err != nil {
		return nil, c.failed("get record", err, slog.String("record_id", id))
	}
	if err = requireOwner(user, rec.SubmitterID); err != nil {
		return nil, c.failed("get record", notFound("achievement record", id))
	}
	return rec, nil
}

func (c *Core) RecordAttachment(ctx context.Context, user *entity.User, id string) (io.ReadCloser, *entity.FileMeta, error) {
	rec, err := c.GetRecord(ctx, user, id)
	if err != nil {
		return nil, nil, err
	}
	if c.files == nil {
		return nil, nil, c.failed("open attachment", apperr.New(apperr.CodeStorage, "attachment store not connected"))
	}
	stream, meta, err := c.files.Open(ctx, rec.Attachment)
	if err != nil {
		return nil, nil, c.failed("open attachment", err, slog.String("record_id", id))
	}
	return stream, meta, nil
}

// ListRecords scopes students to their own submission history.
func (c *Core) ListRecords(ctx context.Context, user *entity.User, f entity.Filter) ([]entity.AchievementRecord, error) {
	if !user.IsAdmin() {
		if user.SubmitterID == "" {
			return []entity.AchievementRecord{}, nil
		}
		f.SubmitterID = user.SubmitterID
	}
	items, err := c.query.Records(ctx, f)
	if err != nil {
		return nil, c.failed("list records", err)
	}
	return items, nil
}
