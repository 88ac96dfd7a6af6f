// Package mysql is the primary store. Ledger counters live on the activity row and
// are guarded by SELECT ... FOR UPDATE inside the caller's transaction.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"eventreg/internal/config"
	"eventreg/internal/storage"
	"eventreg/lib/apperr"

	driver "github.com/go-sql-driver/mysql"
)

const (
	errDuplicateEntry = 1062
	errLockWait       = 1205
	errDeadlock       = 1213

	txAttempts = 3
)

type MySql struct {
	db         *sql.DB
	structure  map[string]map[string]Column
	statements map[string]*sql.Stmt
	mu         sync.Mutex
}

var _ storage.Store = (*MySql)(nil)
var _ storage.EventSource = (*MySql)(nil)

func NewSQLClient(conf *config.Config) (*MySql, error) {
	if !conf.MySql.Enabled {
		return nil, fmt.Errorf("mysql client is disabled in configuration")
	}
	dsn := driver.NewConfig()
	dsn.User = conf.MySql.UserName
	dsn.Passwd = conf.MySql.Password
	dsn.Net = "tcp"
	dsn.Addr = conf.MySql.HostName + ":" + conf.MySql.Port
	dsn.DBName = conf.MySql.Database
	dsn.ParseTime = true
	dsn.Loc = time.UTC
	dsn.ClientFoundRows = true

	db, err := sql.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("sql connect: %w", err)
	}

	// try to ping three times with a 30-second interval; wait for a database to start
	for i := 0; i < 3; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		if i == 2 {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		time.Sleep(30 * time.Second)
	}

	return Open(db)
}

// Open wraps an existing pool and brings the schema up to date.
func Open(db *sql.DB) (*MySql, error) {
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &MySql{
		db:         db,
		structure:  make(map[string]map[string]Column),
		statements: make(map[string]*sql.Stmt),
	}
	if err := sdb.migrate(); err != nil {
		return nil, err
	}
	return sdb, nil
}

func (s *MySql) Close() {
	s.closeStmt()
	_ = s.db.Close()
}

func (s *MySql) WithinTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	var err error
	for attempt := 1; attempt <= txAttempts; attempt++ {
		err = s.runTx(ctx, fn)
		if err == nil || !retryable(err) || ctx.Err() != nil {
			return err
		}
		time.Sleep(time.Duration(attempt*10) * time.Millisecond)
	}
	return err
}

func (s *MySql) runTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return apperr.Storage("begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	if err = fn(ctx, &tx{s: s, tx: sqlTx}); err != nil {
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		return apperr.Storage("commit transaction", err)
	}
	return nil
}

func retryable(err error) bool {
	var me *driver.MySQLError
	if errors.As(err, &me) {
		return me.Number == errDeadlock || me.Number == errLockWait
	}
	return false
}

func isDuplicate(err error) bool {
	var me *driver.MySQLError
	return errors.As(err, &me) && me.Number == errDuplicateEntry
}
