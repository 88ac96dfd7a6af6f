package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"eventreg/entity"
	"eventreg/lib/apperr"
)

// where accumulates a conjunction of predicates and their arguments.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *where) in(column string, values []string) {
	if len(values) == 0 {
		return
	}
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	w.add(column+" IN ("+placeholders(len(values))+")", args...)
}

func (w *where) submitter(column string, f entity.Filter) {
	if f.SubmitterID != "" {
		w.add(column+" = ?", f.SubmitterID)
	}
	if f.SubmitterLike != "" {
		w.add("LOWER("+column+") LIKE ? ESCAPE '!'", "%"+escapeLike(strings.ToLower(f.SubmitterLike))+"%")
	}
}

func (w *where) status(column string, f entity.Filter) {
	if len(f.Statuses) == 0 {
		if !f.IncludeDeleted {
			w.add(column+" <> ?", string(entity.StatusDeleted))
		}
		return
	}
	values := make([]string, len(f.Statuses))
	for i, s := range f.Statuses {
		values[i] = string(s)
	}
	w.in(column, values)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

func (s *MySql) GetActivity(ctx context.Context, id string) (*entity.Activity, error) {
	stmt, err := s.prepareStmt("selectActivity", querySelectActivity)
	if err != nil {
		return nil, apperr.Storage("prepare", err)
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

func (s *MySql) GetRegistration(ctx context.Context, id string) (*entity.Registration, error) {
	stmt, err := s.prepareStmt("selectRegistration", querySelectRegistration)
	if err != nil {
		return nil, apperr.Storage("prepare", err)
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

func (s *MySql) GetRecord(ctx context.Context, id string) (*entity.AchievementRecord, error) {
	stmt, err := s.prepareStmt("selectRecord", querySelectRecord)
	if err != nil {
		return nil, apperr.Storage("prepare", err)
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

func (s *MySql) ListActivities(ctx context.Context, f entity.Filter) ([]entity.Activity, error) {
	var w where
	w.in("id", f.ActivityIDs)
	w.in("category", f.Categories)
	w.submitter("created_by", f)
	w.status("status", f)

	rows, err := s.db.QueryContext(ctx, `SELECT `+activityColumns+` FROM activities`+w.String()+
		` ORDER BY created_at, id`, w.args...)
	if err != nil {
		return nil, apperr.Storage("list activities", err)
	}
	defer rows.Close()

	result := make([]entity.Activity, 0)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, apperr.Storage("scan activity", err)
		}
		result = append(result, *a)
	}
	if err = rows.Err(); err != nil {
		return nil, apperr.Storage("list activities", err)
	}
	return result, nil
}

func (s *MySql) ListRegistrations(ctx context.Context, f entity.Filter) ([]entity.Registration, error) {
	var w where
	w.in("activity_id", f.ActivityIDs)
	w.submitter("submitter_id", f)
	w.status("status", f)
	if len(f.Categories) > 0 {
		args := make([]any, len(f.Categories))
		for i, c := range f.Categories {
			args[i] = c
		}
		w.add("activity_id IN (SELECT id FROM activities WHERE category IN ("+placeholders(len(args))+"))", args...)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+registrationColumns+` FROM registrations`+w.String()+
		` ORDER BY requested_at, id`, w.args...)
	if err != nil {
		return nil, apperr.Storage("list registrations", err)
	}
	defer rows.Close()

	result := make([]entity.Registration, 0)
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, apperr.Storage("scan registration", err)
		}
		result = append(result, *r)
	}
	if err = rows.Err(); err != nil {
		return nil, apperr.Storage("list registrations", err)
	}
	return result, nil
}

func (s *MySql) ListRecords(ctx context.Context, f entity.Filter) ([]entity.AchievementRecord, error) {
	var w where
	w.in("activity_id", f.ActivityIDs)
	w.in("category", f.Categories)
	w.submitter("submitter_id", f)
	w.status("status", f)
	if len(f.CohortYears) > 0 {
		args := make([]any, len(f.CohortYears))
		for i, y := range f.CohortYears {
			args[i] = y
		}
		w.add("cohort_end_year IN ("+placeholders(len(args))+")", args...)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM achievement_records`+w.String()+
		` ORDER BY created_at, id`, w.args...)
	if err != nil {
		return nil, apperr.Storage("list records", err)
	}
	defer rows.Close()

	result := make([]entity.AchievementRecord, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, apperr.Storage("scan record", err)
		}
		result = append(result, *r)
	}
	if err = rows.Err(); err != nil {
		return nil, apperr.Storage("list records", err)
	}
	return result, nil
}
