package mysql

import (
	"database/sql"
	"errors"
	"fmt"
)

type Column struct {
	Name          string
	DefaultValue  *string
	IsNullable    bool
	DataType      string
	AutoIncrement bool
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS activities (
		id               CHAR(36)      NOT NULL,
		name             VARCHAR(255)  NOT NULL,
		category         VARCHAR(64)   NOT NULL,
		start_at         DATETIME(6)   NOT NULL,
		end_at           DATETIME(6)   NOT NULL,
		location         VARCHAR(255)  NOT NULL,
		mode             VARCHAR(64)   NOT NULL,
		organization     VARCHAR(255)  NOT NULL,
		capacity         INT           NULL,
		accepted         INT           NOT NULL DEFAULT 0,
		open_slots       INT           NOT NULL DEFAULT 0,
		status           VARCHAR(16)   NOT NULL,
		confirmed_by     VARCHAR(128)  NOT NULL DEFAULT '',
		confirmed_at     DATETIME(6)   NULL,
		rejection_reason VARCHAR(1000) NOT NULL DEFAULT '',
		created_by       VARCHAR(128)  NOT NULL DEFAULT '',
		created_at       DATETIME(6)   NOT NULL,
		updated_at       DATETIME(6)   NOT NULL,
		PRIMARY KEY (id),
		KEY idx_activities_status (status, created_at),
		CONSTRAINT chk_activities_ledger CHECK (accepted >= 0 AND open_slots >= 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS registrations (
		id               CHAR(36)      NOT NULL,
		submitter_id     VARCHAR(64)   NOT NULL,
		activity_id      CHAR(36)      NOT NULL,
		status           VARCHAR(16)   NOT NULL,
		slot_held        TINYINT(1)    NOT NULL DEFAULT 0,
		requested_at     DATETIME(6)   NOT NULL,
		confirmed_by     VARCHAR(128)  NOT NULL DEFAULT '',
		confirmed_at     DATETIME(6)   NULL,
		rejection_reason VARCHAR(1000) NOT NULL DEFAULT '',
		active_key       VARCHAR(128)  GENERATED ALWAYS AS
			(IF(status <> 'rejected', CONCAT(submitter_id, '/', activity_id), NULL)) STORED,
		PRIMARY KEY (id),
		UNIQUE KEY uq_registrations_active (active_key),
		KEY idx_registrations_submitter (submitter_id, status),
		KEY idx_registrations_activity (activity_id, status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS achievement_records (
		id               CHAR(36)      NOT NULL,
		submitter_id     VARCHAR(64)   NOT NULL,
		display_name     VARCHAR(255)  NOT NULL,
		cohort_end_year  INT           NOT NULL,
		activity_id      VARCHAR(64)   NOT NULL,
		activity_name    VARCHAR(255)  NOT NULL,
		category         VARCHAR(64)   NOT NULL,
		organizer        VARCHAR(255)  NOT NULL,
		start_at         DATETIME(6)   NOT NULL,
		end_at           DATETIME(6)   NOT NULL,
		description      TEXT          NOT NULL,
		attachment       VARCHAR(255)  NOT NULL,
		status           VARCHAR(16)   NOT NULL,
		confirmed_by     VARCHAR(128)  NOT NULL DEFAULT '',
		confirmed_at     DATETIME(6)   NULL,
		rejection_reason VARCHAR(1000) NOT NULL DEFAULT '',
		created_at       DATETIME(6)   NOT NULL,
		PRIMARY KEY (id),
		KEY idx_records_submitter (submitter_id, status),
		KEY idx_records_status (status, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS review_events (
		id           BIGINT        NOT NULL AUTO_INCREMENT,
		kind         VARCHAR(32)   NOT NULL,
		entity_id    CHAR(36)      NOT NULL,
		action       VARCHAR(32)   NOT NULL,
		from_status  VARCHAR(16)   NOT NULL DEFAULT '',
		to_status    VARCHAR(16)   NOT NULL,
		actor        VARCHAR(128)  NOT NULL DEFAULT '',
		reason       VARCHAR(1000) NOT NULL DEFAULT '',
		occurred_at  DATETIME(6)   NOT NULL,
		payload      MEDIUMTEXT    NULL,
		claimed_at   DATETIME(6)   NULL,
		published_at DATETIME(6)   NULL,
		PRIMARY KEY (id),
		KEY idx_review_events_pending (published_at, id),
		KEY idx_review_events_entity (kind, entity_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// migrate creates missing tables and columns; it never drops anything.
func (s *MySql) migrate() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	if err := s.addColumnIfNotExists("activities", "website_link", "VARCHAR(512) NOT NULL DEFAULT ''"); err != nil {
		return err
	}
	if err := s.addColumnIfNotExists("activities", "eligible_depts", "TEXT NULL"); err != nil {
		return err
	}
	return nil
}

// loadTableStructure reads column metadata of the current schema from information_schema.
func (s *MySql) loadTableStructure(tableName string) (map[string]Column, error) {
	query := `
        SELECT COLUMN_NAME, COLUMN_DEFAULT, IS_NULLABLE, DATA_TYPE, EXTRA
          FROM information_schema.columns
         WHERE table_schema = DATABASE() AND table_name = ?
         ORDER BY ORDINAL_POSITION`

	rows, err := s.db.Query(query, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	columns := make(map[string]Column)

	for rows.Next() {
		var colName, isNullable, dataType, extra string
		var colDefault sql.NullString

		if err = rows.Scan(&colName, &colDefault, &isNullable, &dataType, &extra); err != nil {
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}

		var defValPtr *string
		if colDefault.Valid {
			defValPtr = &colDefault.String
		}

		columns[colName] = Column{
			Name:          colName,
			DefaultValue:  defValPtr,
			IsNullable:    isNullable == "YES",
			DataType:      dataType,
			AutoIncrement: extra == "auto_increment",
		}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("after scanning rows: %w", err)
	}

	return columns, nil
}

func (s *MySql) addColumnIfNotExists(tableName, columnName, columnType string) error {
	structure, err := s.readStructure(tableName)
	if err != nil {
		return err
	}
	if _, ok := structure[columnName]; ok {
		return nil
	}
	alterQuery := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, tableName, columnName, columnType)
	if _, err = s.db.Exec(alterQuery); err != nil {
		return fmt.Errorf("add column %s to table %s: %w", columnName, tableName, err)
	}
	s.mu.Lock()
	delete(s.structure, tableName)
	s.mu.Unlock()
	return nil
}

func (s *MySql) readStructure(table string) (map[string]Column, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.structure == nil {
		return nil, errors.New("structure cache is not initialized")
	}
	tableInfo, ok := s.structure[table]
	if !ok {
		var err error
		tableInfo, err = s.loadTableStructure(table)
		if err != nil {
			return nil, fmt.Errorf("load table structure: %w", err)
		}
		s.structure[table] = tableInfo
	}
	return tableInfo, nil
}
