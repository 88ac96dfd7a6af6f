package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"eventreg/entity"
	"eventreg/impl/admission"
	"eventreg/impl/ledger"
	"eventreg/impl/query"
	"eventreg/impl/review"
	"eventreg/internal/observability"
	"eventreg/internal/storage"
	"eventreg/lib/apperr"
	"eventreg/lib/clock"
	"eventreg/lib/sl"
)

type AuthService interface {
	UserByToken(token string) (*entity.User, error)
}

// Directory resolves a submitter to profile attributes.
type Directory interface {
	Profile(ctx context.Context, submitterID string) (*entity.Profile, error)
}

type AttachmentStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, *entity.FileMeta, error)
	Remove(ctx context.Context, ref string) error
}

type Core struct {
	store     storage.Store
	machine   *review.Machine
	admission *admission.Controller
	ledger    *ledger.Ledger
	query     *query.Service
	now       clock.Clock
	auth      AuthService
	directory Directory
	files     AttachmentStore
	log       *slog.Logger
}

type Options struct {
	Admission admission.Options
	Clock     clock.Clock
}

func New(store storage.Store, log *slog.Logger, opts Options) *Core {
	if store == nil {
		panic("store is nil")
	}
	now := opts.Clock
	if now == nil {
		now = clock.System
	}
	machine := review.NewMachine(review.DefaultPolicy(), now)
	return &Core{
		store:     store,
		machine:   machine,
		admission: admission.New(store, machine, now, opts.Admission),
		ledger:    ledger.New(store),
		query:     query.New(store),
		now:       now,
		log:       log.With(sl.Module("core")),
	}
}

func (c *Core) SetAuthService(auth AuthService) {
	c.auth = auth
}

func (c *Core) SetDirectory(dir Directory) {
	c.directory = dir
}

func (c *Core) SetAttachmentStore(files AttachmentStore) {
	c.files = files
}

func (c *Core) AuthenticateByToken(token string) (*entity.User, error) {
	if c.auth == nil {
		return nil, fmt.Errorf("auth service not connected")
	}
	return c.auth.UserByToken(token)
}

// PendingCounts reports the size of each review queue.
func (c *Core) PendingCounts(ctx context.Context) (map[entity.Kind]int, error) {
	counts, err := c.query.PendingCounts(ctx)
	if err != nil {
		return nil, c.failed("pending counts", err)
	}
	return counts, nil
}

// ActivitySlots reports the ledger counters of one activity.
func (c *Core) ActivitySlots(ctx context.Context, activityID string) (*ledger.Counters, error) {
	counters, err := c.ledger.Snapshot(ctx, activityID)
	if err != nil {
		return nil, c.failed("activity slots", err)
	}
	return counters, nil
}

// failed logs err by severity: business outcomes at debug, storage failures at error.
func (c *Core) failed(op string, err error, attrs ...any) error {
	log := c.log.With(slog.String("op", op)).With(attrs...)
	if apperr.IsBusiness(err) {
		log.With(
			slog.String("code", string(apperr.CodeOf(err))),
		).Debug("request refused", sl.Err(err))
		return err
	}
	observability.RecordStorageFailure(op)
	log.Error("storage failure", sl.Err(err))
	return apperr.Storage(op, err)
}

func requireAdmin(user *entity.User) error {
	if user == nil || !user.IsAdmin() {
		return apperr.New(apperr.CodeForbidden, "admin role required")
	}
	return nil
}

// requireOwner allows admins and the submitter themselves.
func requireOwner(user *entity.User, submitterID string) error {
	if user == nil {
		return apperr.New(apperr.CodeForbidden, "access denied")
	}
	if user.IsAdmin() || user.Owns(submitterID) {
		return nil
	}
	return apperr.New(apperr.CodeForbidden, "access denied")
}

func actorOf(user *entity.User) string {
	if user == nil {
		return ""
	}
	return user.Username
}
