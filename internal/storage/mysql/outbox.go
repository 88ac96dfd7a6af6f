package mysql

import (
	"context"
	"database/sql"
	"time"

	"eventreg/entity"
	"eventreg/lib/apperr"
)

// claimTimeout returns abandoned claims to the queue.
const claimTimeout = 5 * time.Minute

func (s *MySql) ClaimEvents(ctx context.Context, limit int) (events []entity.ReviewEvent, err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Storage("begin claim", err)
	}
	defer func() {
		if err != nil || len(events) == 0 {
			_ = sqlTx.Rollback()
		}
	}()

	now := time.Now().UTC()
	rows, err := sqlTx.QueryContext(ctx, `SELECT id, kind, entity_id, action, from_status, to_status, actor, reason, occurred_at, payload
		FROM review_events
		WHERE published_at IS NULL AND (claimed_at IS NULL OR claimed_at < ?)
		ORDER BY id
		LIMIT ?
		FOR UPDATE SKIP LOCKED`, now.Add(-claimTimeout), limit)
	if err != nil {
		return nil, apperr.Storage("select events", err)
	}

	ids := make([]any, 0, limit)
	for rows.Next() {
		var (
			e       entity.ReviewEvent
			kind    string
			from    string
			to      string
			payload sql.NullString
		)
		if err = rows.Scan(&e.ID, &kind, &e.EntityID, &e.Action, &from, &to, &e.Actor, &e.Reason, &e.OccurredAt, &payload); err != nil {
			_ = rows.Close()
			return nil, apperr.Storage("scan event", err)
		}
		e.Kind = entity.Kind(kind)
		e.FromStatus = entity.Status(from)
		e.ToStatus = entity.Status(to)
		if payload.Valid {
			e.Payload = []byte(payload.String)
		}
		events = append(events, e)
		ids = append(ids, e.ID)
	}
	_ = rows.Close()
	if err = rows.Err(); err != nil {
		return nil, apperr.Storage("select events", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	args := append([]any{now}, ids...)
	if _, err = sqlTx.ExecContext(ctx, `UPDATE review_events SET claimed_at = ? WHERE id IN (`+placeholders(len(ids))+`)`, args...); err != nil {
		return nil, apperr.Storage("claim events", err)
	}
	if err = sqlTx.Commit(); err != nil {
		return nil, apperr.Storage("commit claim", err)
	}
	return events, nil
}

func (s *MySql) MarkPublished(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	args := append([]any{time.Now().UTC()}, int64Args(ids)...)
	_, err := s.db.ExecContext(ctx, `UPDATE review_events SET published_at = ?, claimed_at = NULL
		WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return apperr.Storage("mark published", err)
	}
	return nil
}

func (s *MySql) ReleaseClaims(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `UPDATE review_events SET claimed_at = NULL
		WHERE id IN (`+placeholders(len(ids))+`)`, int64Args(ids)...)
	if err != nil {
		return apperr.Storage("release claims", err)
	}
	return nil
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
