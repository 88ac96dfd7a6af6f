package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventreg/entity"
	"eventreg/lib/apperr"
)

type tx struct {
	s  *MySql
	tx *sql.Tx
}

func (t *tx) activity(ctx context.Context, name, query, id string) (*entity.Activity, error) {
	stmt, err := t.txStmt(ctx, name, query)
	if err != nil {
		return nil, err
	}
	a, err := scanActivity(stmt.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Newf(apperr.CodeNotFound, "activity %s not found", id)
	}
	if err != nil {
		return nil, apperr.Storage("select activity", err)
	}
	return a, nil
}

func (t *tx) Activity(ctx context.Context, id string) (*entity.Activity, error) {
	return t.activity(ctx, "selectActivity", querySelectActivity, id)
}

func (t *tx) ActivityForUpdate(ctx context.Context, id string) (*entity.Activity, error) {
	return t.activity(ctx, "selectActivityForUpdate", querySelectActivityForUpdate, id)
}

func (t *tx) InsertActivity(ctx context.Context, a *entity.Activity) error {
	stmt, err := t.txStmt(ctx, "insertActivity", queryInsertActivity)
	if err != nil {
		return err
	}
	depts, err := deptsValue(a.EligibleDepts)
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx,
		a.ID,
		a.Name,
		a.Category,
		a.StartAt.UTC(),
		a.EndAt.UTC(),
		a.Location,
		a.Mode,
		a.Organization,
		a.WebsiteLink,
		depts,
		nullInt(a.Capacity),
		a.Accepted,
		a.Open,
		string(a.Status),
		a.ConfirmedBy,
		nullTime(a.ConfirmedAt),
		a.RejectionReason,
		a.CreatedBy,
		a.CreatedAt.UTC(),
		a.UpdatedAt.UTC(),
	)
	if err != nil {
		return apperr.Storage("insert activity", err)
	}
	return nil
}

func (t *tx) UpdateActivity(ctx context.Context, a *entity.Activity) error {
	stmt, err := t.txStmt(ctx, "updateActivity", queryUpdateActivity)
	if err != nil {
		return err
	}
	depts, err := deptsValue(a.EligibleDepts)
	if err != nil {
		return err
	}
	res, err := stmt.ExecContext(ctx,
		depts,
		nullInt(a.Capacity),
		a.Accepted,
		a.Open,
		string(a.Status),
		a.ConfirmedBy,
		nullTime(a.ConfirmedAt),
		a.RejectionReason,
		a.UpdatedAt.UTC(),
		a.ID,
	)
	if err != nil {
		return apperr.Storage("update activity", err)
	}
	return expectRow(res, "activity", a.ID)
}

func (t *tx) UpdateLedger(ctx context.Context, id string, accepted, open int) error {
	stmt, err := t.txStmt(ctx, "updateLedger", queryUpdateLedger)
	if err != nil {
		return err
	}
	if _, err = stmt.ExecContext(ctx, accepted, open, id); err != nil {
		return apperr.Storage("update ledger", err)
	}
	return nil
}

func (t *tx) RegistrationForUpdate(ctx context.Context, id string) (*entity.Registration, error) {
	stmt, err := t.txStmt(ctx, "selectRegistrationForUpdate", querySelectRegistrationForUpdate)
	if err != nil {
		return nil, err
	}
	r, err := scanRegistration(stmt.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Newf(apperr.CodeNotFound, "registration %s not found", id)
	}
	if err != nil {
		return nil, apperr.Storage("select registration", err)
	}
	return r, nil
}

func (t *tx) ActiveRegistration(ctx context.Context, submitterID, activityID string) (*entity.Registration, error) {
	stmt, err := t.txStmt(ctx, "selectActiveRegistration", querySelectActiveRegistration)
	if err != nil {
		return nil, err
	}
	r, err := scanRegistration(stmt.QueryRowContext(ctx, submitterID, activityID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage("select active registration", err)
	}
	return r, nil
}

func (t *tx) ApprovedSchedule(ctx context.Context, submitterID string) ([]entity.Activity, error) {
	stmt, err := t.txStmt(ctx, "selectSchedule", querySelectSchedule)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, submitterID)
	if err != nil {
		return nil, apperr.Storage("select schedule", err)
	}
	defer rows.Close()

	var result []entity.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, apperr.Storage("scan schedule", err)
		}
		result = append(result, *a)
	}
	if err = rows.Err(); err != nil {
		return nil, apperr.Storage("select schedule", err)
	}
	return result, nil
}

func (t *tx) InsertRegistration(ctx context.Context, r *entity.Registration) error {
	stmt, err := t.txStmt(ctx, "insertRegistration", queryInsertRegistration)
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx,
		r.ID,
		r.SubmitterID,
		r.ActivityID,
		string(r.Status),
		r.SlotHeld,
		r.RequestedAt.UTC(),
		r.ConfirmedBy,
		nullTime(r.ConfirmedAt),
		r.RejectionReason,
	)
	if isDuplicate(err) {
		return apperr.Wrap(apperr.CodeAlreadyRegistered, "submitter already holds a registration for this activity", err)
	}
	if err != nil {
		return apperr.Storage("insert registration", err)
	}
	return nil
}

func (t *tx) UpdateRegistration(ctx context.Context, r *entity.Registration) error {
	stmt, err := t.txStmt(ctx, "updateRegistration", queryUpdateRegistration)
	if err != nil {
		return err
	}
	res, err := stmt.ExecContext(ctx,
		string(r.Status),
		r.SlotHeld,
		r.ConfirmedBy,
		nullTime(r.ConfirmedAt),
		r.RejectionReason,
		r.ID,
	)
	if isDuplicate(err) {
		return apperr.Wrap(apperr.CodeAlreadyRegistered, "submitter already holds a registration for this activity", err)
	}
	if err != nil {
		return apperr.Storage("update registration", err)
	}
	return expectRow(res, "registration", r.ID)
}

func (t *tx) RecordForUpdate(ctx context.Context, id string) (*entity.AchievementRecord, error) {
	stmt, err := t.txStmt(ctx, "selectRecordForUpdate", querySelectRecordForUpdate)
	if err != nil {
		return nil, err
	}
	r, err := scanRecord(stmt.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Newf(apperr.CodeNotFound, "achievement record %s not found", id)
	}
	if err != nil {
		return nil, apperr.Storage("select record", err)
	}
	return r, nil
}

func (t *tx) InsertRecord(ctx context.Context, r *entity.AchievementRecord) error {
	stmt, err := t.txStmt(ctx, "insertRecord", queryInsertRecord)
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx,
		r.ID,
		r.SubmitterID,
		r.DisplayName,
		r.CohortEndYear,
		r.ActivityID,
		r.ActivityName,
		r.Category,
		r.Organizer,
		r.StartAt.UTC(),
		r.EndAt.UTC(),
		r.Description,
		r.Attachment,
		string(r.Status),
		r.ConfirmedBy,
		nullTime(r.ConfirmedAt),
		r.RejectionReason,
		r.CreatedAt.UTC(),
	)
	if err != nil {
		return apperr.Storage("insert record", err)
	}
	return nil
}

func (t *tx) UpdateRecord(ctx context.Context, r *entity.AchievementRecord) error {
	stmt, err := t.txStmt(ctx, "updateRecord", queryUpdateRecord)
	if err != nil {
		return err
	}
	res, err := stmt.ExecContext(ctx,
		string(r.Status),
		r.ConfirmedBy,
		nullTime(r.ConfirmedAt),
		r.RejectionReason,
		r.ID,
	)
	if err != nil {
		return apperr.Storage("update record", err)
	}
	return expectRow(res, "achievement record", r.ID)
}

func (t *tx) AppendEvent(ctx context.Context, e *entity.ReviewEvent) error {
	stmt, err := t.txStmt(ctx, "insertEvent", queryInsertEvent)
	if err != nil {
		return err
	}
	res, err := stmt.ExecContext(ctx,
		string(e.Kind),
		e.EntityID,
		e.Action,
		string(e.FromStatus),
		string(e.ToStatus),
		e.Actor,
		e.Reason,
		e.OccurredAt.UTC(),
		string(e.Payload),
	)
	if err != nil {
		return apperr.Storage("insert review event", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		e.ID = id
	}
	return nil
}

// expectRow turns a zero-row update into not_found. The DSN sets clientFoundRows,
// so unchanged rows still count as matched.
func expectRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage(fmt.Sprintf("update %s", kind), err)
	}
	if n == 0 {
		return apperr.Newf(apperr.CodeNotFound, "%s %s not found", kind, id)
	}
	return nil
}
