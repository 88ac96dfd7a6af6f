package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

const (
	activityColumns = `id, name, category, start_at, end_at, location, mode, organization, website_link,
		eligible_depts, capacity, accepted, open_slots, status, confirmed_by, confirmed_at, rejection_reason,
		created_by, created_at, updated_at`
	registrationColumns = `id, submitter_id, activity_id, status, slot_held, requested_at,
		confirmed_by, confirmed_at, rejection_reason`
	recordColumns = `id, submitter_id, display_name, cohort_end_year, activity_id, activity_name, category,
		organizer, start_at, end_at, description, attachment, status, confirmed_by, confirmed_at,
		rejection_reason, created_at`
)

func (s *MySql) prepareStmt(name, query string) (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.statements[name]; ok {
		return stmt, nil
	}

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement [%s]: %w", name, err)
	}

	s.statements[name] = stmt
	return stmt, nil
}

// txStmt binds a cached statement to the transaction.
func (t *tx) txStmt(ctx context.Context, name, query string) (*sql.Stmt, error) {
	stmt, err := t.s.prepareStmt(name, query)
	if err != nil {
		return nil, err
	}
	return t.tx.StmtContext(ctx, stmt), nil
}

func (s *MySql) closeStmt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, stmt := range s.statements {
		_ = stmt.Close()
		delete(s.statements, name)
	}
}

const (
	querySelectActivity          = `SELECT ` + activityColumns + ` FROM activities WHERE id = ?`
	querySelectActivityForUpdate = querySelectActivity + ` FOR UPDATE`
	queryInsertActivity          = `INSERT INTO activities (` + activityColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	queryUpdateActivity = `UPDATE activities SET
		eligible_depts = ?, capacity = ?, accepted = ?, open_slots = ?, status = ?,
		confirmed_by = ?, confirmed_at = ?, rejection_reason = ?, updated_at = ?
		WHERE id = ?`
	queryUpdateLedger = `UPDATE activities SET accepted = ?, open_slots = ? WHERE id = ?`

	querySelectRegistration          = `SELECT ` + registrationColumns + ` FROM registrations WHERE id = ?`
	querySelectRegistrationForUpdate = querySelectRegistration + ` FOR UPDATE`
	querySelectActiveRegistration    = `SELECT ` + registrationColumns + ` FROM registrations
		WHERE submitter_id = ? AND activity_id = ? AND status <> 'rejected' LIMIT 1`
	queryInsertRegistration = `INSERT INTO registrations (` + registrationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	queryUpdateRegistration = `UPDATE registrations SET
		status = ?, slot_held = ?, confirmed_by = ?, confirmed_at = ?, rejection_reason = ?
		WHERE id = ?`
	querySelectSchedule = `SELECT a.id, a.name, a.category, a.start_at, a.end_at, a.location, a.mode,
		a.organization, a.website_link, a.eligible_depts, a.capacity, a.accepted, a.open_slots, a.status,
		a.confirmed_by, a.confirmed_at, a.rejection_reason, a.created_by, a.created_at, a.updated_at
		FROM registrations r JOIN activities a ON a.id = r.activity_id
		WHERE r.submitter_id = ? AND r.status = 'approved' AND a.status <> 'deleted'`

	querySelectRecord          = `SELECT ` + recordColumns + ` FROM achievement_records WHERE id = ?`
	querySelectRecordForUpdate = querySelectRecord + ` FOR UPDATE`
	queryInsertRecord          = `INSERT INTO achievement_records (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	queryUpdateRecord = `UPDATE achievement_records SET
		status = ?, confirmed_by = ?, confirmed_at = ?, rejection_reason = ?
		WHERE id = ?`

	queryInsertEvent = `INSERT INTO review_events
		(kind, entity_id, action, from_status, to_status, actor, reason, occurred_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
)
