package review

import (
	"context"
	"testing"
	"time"

	"eventreg/entity"
	"eventreg/internal/storage"
	"eventreg/internal/storage/memory"
	"eventreg/lib/apperr"
	"eventreg/lib/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)

func intPtr(v int) *int {
	return &v
}

func TestPolicyGraph(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name   string
		kind   entity.Kind
		from   entity.Status
		action entity.Action
		want   entity.Status
		code   apperr.Code
	}{
		{"approve pending record", entity.KindRecord, entity.StatusPending, entity.ActionApprove, entity.StatusApproved, ""},
		{"reject pending activity", entity.KindActivity, entity.StatusPending, entity.ActionReject, entity.StatusRejected, ""},
		{"withdraw approved registration", entity.KindRegistration, entity.StatusApproved, entity.ActionReject, entity.StatusRejected, ""},
		{"cancel pending registration", entity.KindRegistration, entity.StatusPending, entity.ActionCancel, entity.StatusRejected, ""},
		{"delete approved activity", entity.KindActivity, entity.StatusApproved, entity.ActionDelete, entity.StatusDeleted, ""},
		{"delete deleted activity", entity.KindActivity, entity.StatusDeleted, entity.ActionDelete, entity.StatusDeleted, ""},
		{"approve approved record", entity.KindRecord, entity.StatusApproved, entity.ActionApprove, "", apperr.CodeInvalidTransition},
		{"reject approved record", entity.KindRecord, entity.StatusApproved, entity.ActionReject, "", apperr.CodeInvalidTransition},
		{"reject approved activity", entity.KindActivity, entity.StatusApproved, entity.ActionReject, "", apperr.CodeInvalidTransition},
		{"approve rejected registration", entity.KindRegistration, entity.StatusRejected, entity.ActionApprove, "", apperr.CodeInvalidTransition},
		{"delete registration", entity.KindRegistration, entity.StatusPending, entity.ActionDelete, "", apperr.CodeInvalidTransition},
		{"approve deleted activity", entity.KindActivity, entity.StatusDeleted, entity.ActionApprove, "", apperr.CodeInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Next(tt.kind, tt.from, tt.action)
			if tt.code != "" {
				require.Error(t, err)
				assert.Equal(t, tt.code, apperr.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPolicyAllowed(t *testing.T) {
	p := DefaultPolicy()
	assert.ElementsMatch(t,
		[]entity.Action{entity.ActionReject, entity.ActionCancel},
		p.Allowed(entity.KindRegistration, entity.StatusApproved))
	assert.Empty(t, p.Allowed(entity.KindRecord, entity.StatusRejected))
}

func TestApplyApproveStampsReviewer(t *testing.T) {
	m := NewMachine(nil, clock.Fixed(at))
	rec := &entity.AchievementRecord{ID: "r1", Review: entity.Review{Status: entity.StatusPending}}

	tr, err := m.Apply(rec, Decision{Action: entity.ActionApprove, Actor: "admin"})
	require.NoError(t, err)

	assert.True(t, tr.Changed)
	assert.Equal(t, entity.StatusPending, tr.From)
	assert.Equal(t, entity.StatusApproved, tr.To)
	assert.Equal(t, entity.StatusApproved, rec.Status)
	assert.Equal(t, "admin", rec.ConfirmedBy)
	require.NotNil(t, rec.ConfirmedAt)
	assert.Equal(t, at, *rec.ConfirmedAt)
	assert.Empty(t, rec.RejectionReason)
}

func TestApplyRejectNeedsReason(t *testing.T) {
	m := NewMachine(nil, clock.Fixed(at))
	rec := &entity.AchievementRecord{ID: "r1", Review: entity.Review{Status: entity.StatusPending}}

	_, err := m.Apply(rec, Decision{Action: entity.ActionReject, Actor: "admin", Reason: " "})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, entity.StatusPending, rec.Status)

	_, err = m.Apply(rec, Decision{Action: entity.ActionReject, Actor: "admin", Reason: " blurry scan "})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRejected, rec.Status)
	assert.Equal(t, "blurry scan", rec.RejectionReason)
}

func TestApplyActivityApprovalFields(t *testing.T) {
	m := NewMachine(nil, clock.Fixed(at))
	a := &entity.Activity{ID: "a1", Review: entity.Review{Status: entity.StatusPending}}

	_, err := m.Apply(a, Decision{Action: entity.ActionApprove, Actor: "admin", Approval: &entity.ApprovalFields{}})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, entity.StatusPending, a.Status)

	_, err = m.Apply(a, Decision{Action: entity.ActionApprove, Actor: "admin", Approval: &entity.ApprovalFields{
		Capacity: intPtr(-1), EligibleDepts: []string{"CSE"},
	}})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = m.Apply(a, Decision{Action: entity.ActionApprove, Actor: "admin", Approval: &entity.ApprovalFields{
		Capacity: intPtr(30), EligibleDepts: []string{"CSE", "ECE"},
	}})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, a.Status)
	require.NotNil(t, a.Capacity)
	assert.Equal(t, 30, *a.Capacity)
	assert.Equal(t, []string{"CSE", "ECE"}, a.EligibleDepts)
}

func TestApplyDeleteIsIdempotent(t *testing.T) {
	m := NewMachine(nil, clock.Fixed(at))
	a := &entity.Activity{ID: "a1", Review: entity.Review{Status: entity.StatusApproved}}

	tr, err := m.Apply(a, Decision{Action: entity.ActionDelete, Actor: "admin"})
	require.NoError(t, err)
	assert.True(t, tr.Changed)
	assert.Equal(t, entity.StatusDeleted, a.Status)

	tr, err = m.Apply(a, Decision{Action: entity.ActionDelete, Actor: "admin"})
	require.NoError(t, err)
	assert.False(t, tr.Changed)
	assert.Equal(t, entity.StatusDeleted, a.Status)
}

func recordPipeline() Pipeline[*entity.AchievementRecord] {
	return Pipeline[*entity.AchievementRecord]{
		Load: func(ctx context.Context, tx storage.Tx, id string) (*entity.AchievementRecord, error) {
			return tx.RecordForUpdate(ctx, id)
		},
		Save: func(ctx context.Context, tx storage.Tx, r *entity.AchievementRecord) error {
			return tx.UpdateRecord(ctx, r)
		},
	}
}

func TestDecidePersistsAndAudits(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.InsertRecord(ctx, &entity.AchievementRecord{ID: "r1", SubmitterID: "S1", Review: entity.Review{Status: entity.StatusPending}})
	}))
	m := NewMachine(nil, clock.Fixed(at))

	err := store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		_, _, err := Decide(ctx, m, tx, recordPipeline(), "r1", Decision{Action: entity.ActionReject, Actor: "admin", Reason: "duplicate"})
		return err
	})
	require.NoError(t, err)

	rec, err := store.GetRecord(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRejected, rec.Status)
	assert.Equal(t, "duplicate", rec.RejectionReason)

	events := store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, entity.KindRecord, events[0].Kind)
	assert.Equal(t, "r1", events[0].EntityID)
	assert.Equal(t, entity.StatusPending, events[0].FromStatus)
	assert.Equal(t, entity.StatusRejected, events[0].ToStatus)
	assert.Equal(t, "duplicate", events[0].Reason)
	assert.Equal(t, at, events[0].OccurredAt)
	assert.Equal(t, "achievement_record.reject", events[0].Type())
}

func TestDecideUnknownEntity(t *testing.T) {
	store := memory.New()
	m := NewMachine(nil, clock.Fixed(at))

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		_, _, err := Decide(ctx, m, tx, recordPipeline(), "nope", Decision{Action: entity.ActionApprove, Actor: "admin"})
		return err
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Empty(t, store.Events())
}
