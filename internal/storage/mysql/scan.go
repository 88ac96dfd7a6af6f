package mysql

import (
	"database/sql"
	"encoding/json"
	"time"

	"eventreg/entity"
)

type scanner interface {
	Scan(dest ...any) error
}

func scanActivity(row scanner) (*entity.Activity, error) {
	var a entity.Activity
	var (
		depts       sql.NullString
		capacity    sql.NullInt64
		status      string
		confirmedAt sql.NullTime
	)
	if err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Category,
		&a.StartAt,
		&a.EndAt,
		&a.Location,
		&a.Mode,
		&a.Organization,
		&a.WebsiteLink,
		&depts,
		&capacity,
		&a.Accepted,
		&a.Open,
		&status,
		&a.ConfirmedBy,
		&confirmedAt,
		&a.RejectionReason,
		&a.CreatedBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if depts.Valid && depts.String != "" {
		if err := json.Unmarshal([]byte(depts.String), &a.EligibleDepts); err != nil {
			return nil, err
		}
	}
	if capacity.Valid {
		c := int(capacity.Int64)
		a.Capacity = &c
	}
	a.Status = entity.Status(status)
	a.ConfirmedAt = timePtr(confirmedAt)
	return &a, nil
}

func scanRegistration(row scanner) (*entity.Registration, error) {
	var r entity.Registration
	var (
		status      string
		confirmedAt sql.NullTime
	)
	if err := row.Scan(
		&r.ID,
		&r.SubmitterID,
		&r.ActivityID,
		&status,
		&r.SlotHeld,
		&r.RequestedAt,
		&r.ConfirmedBy,
		&confirmedAt,
		&r.RejectionReason,
	); err != nil {
		return nil, err
	}
	r.Status = entity.Status(status)
	r.ConfirmedAt = timePtr(confirmedAt)
	return &r, nil
}

func scanRecord(row scanner) (*entity.AchievementRecord, error) {
	var r entity.AchievementRecord
	var (
		status      string
		confirmedAt sql.NullTime
	)
	if err := row.Scan(
		&r.ID,
		&r.SubmitterID,
		&r.DisplayName,
		&r.CohortEndYear,
		&r.ActivityID,
		&r.ActivityName,
		&r.Category,
		&r.Organizer,
		&r.StartAt,
		&r.EndAt,
		&r.Description,
		&r.Attachment,
		&status,
		&r.ConfirmedBy,
		&confirmedAt,
		&r.RejectionReason,
		&r.CreatedAt,
	); err != nil {
		return nil, err
	}
	r.Status = entity.Status(status)
	r.ConfirmedAt = timePtr(confirmedAt)
	return &r, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func deptsValue(depts []string) (sql.NullString, error) {
	if len(depts) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(depts)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
