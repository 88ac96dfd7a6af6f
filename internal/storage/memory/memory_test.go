package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"eventreg/entity"
	"eventreg/internal/storage"
	"eventreg/lib/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertActivity(t *testing.T, s *Store, a entity.Activity) {
	t.Helper()
	require.NoError(t, s.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		return tx.InsertActivity(ctx, &a)
	}))
}

func TestRollbackDiscardsStagedWrites(t *testing.T) {
	s := New()
	insertActivity(t, s, entity.Activity{ID: "a1", Open: 3, Review: entity.Review{Status: entity.StatusApproved}})

	boom := errors.New("boom")
	err := s.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		if err := tx.UpdateLedger(ctx, "a1", 1, 2); err != nil {
			return err
		}
		staged, err := tx.Activity(ctx, "a1")
		require.NoError(t, err)
		assert.Equal(t, 2, staged.Open)

		committed, err := s.GetActivity(ctx, "a1")
		require.NoError(t, err)
		assert.Equal(t, 3, committed.Open)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	a, err := s.GetActivity(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, 0, a.Accepted)
	assert.Equal(t, 3, a.Open)
	assert.Zero(t, s.locks.size())
}

func TestLockingReadSerializesUnits(t *testing.T) {
	s := New()
	insertActivity(t, s, entity.Activity{ID: "a1", Review: entity.Review{Status: entity.StatusApproved}})

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_ = s.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
			_, err := tx.ActivityForUpdate(ctx, "a1")
			close(locked)
			<-release
			return err
		})
	}()
	<-locked

	go func() {
		defer close(done)
		_ = s.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
			_, err := tx.ActivityForUpdate(ctx, "a1")
			return err
		})
	}()

	select {
	case <-done:
		t.Fatal("second unit acquired a held row lock")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second unit did not proceed after release")
	}
}

func TestInsertRegistrationEnforcesActiveUniqueness(t *testing.T) {
	s := New()
	ctx := context.Background()
	first := &entity.Registration{ID: "r1", SubmitterID: "S1", ActivityID: "a1", Review: entity.Review{Status: entity.StatusRejected}}
	second := &entity.Registration{ID: "r2", SubmitterID: "S1", ActivityID: "a1", Review: entity.Review{Status: entity.StatusPending}}
	third := &entity.Registration{ID: "r3", SubmitterID: "S1", ActivityID: "a1", Review: entity.Review{Status: entity.StatusPending}}

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.InsertRegistration(ctx, first); err != nil {
			return err
		}
		return tx.InsertRegistration(ctx, second)
	}))

	err := s.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.InsertRegistration(ctx, third)
	})
	assert.ErrorIs(t, err, apperr.ErrAlreadyRegistered)
}

func TestApprovedScheduleSkipsDeletedActivities(t *testing.T) {
	s := New()
	ctx := context.Background()
	insertActivity(t, s, entity.Activity{ID: "live", Review: entity.Review{Status: entity.StatusApproved}})
	insertActivity(t, s, entity.Activity{ID: "gone", Review: entity.Review{Status: entity.StatusDeleted}})
	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		for _, r := range []*entity.Registration{
			{ID: "r1", SubmitterID: "S1", ActivityID: "live", Review: entity.Review{Status: entity.StatusApproved}},
			{ID: "r2", SubmitterID: "S1", ActivityID: "gone", Review: entity.Review{Status: entity.StatusApproved}},
			{ID: "r3", SubmitterID: "S2", ActivityID: "live", Review: entity.Review{Status: entity.StatusApproved}},
		} {
			if err := tx.InsertRegistration(ctx, r); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		schedule, err := tx.ApprovedSchedule(ctx, "S1")
		require.NoError(t, err)
		require.Len(t, schedule, 1)
		assert.Equal(t, "live", schedule[0].ID)
		return nil
	}))
}

func TestListActivitiesFilters(t *testing.T) {
	s := New()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	insertActivity(t, s, entity.Activity{ID: "b", Category: "Tech", CreatedAt: base, Review: entity.Review{Status: entity.StatusApproved}})
	insertActivity(t, s, entity.Activity{ID: "a", Category: "Tech", CreatedAt: base, Review: entity.Review{Status: entity.StatusPending}})
	insertActivity(t, s, entity.Activity{ID: "c", Category: "Quiz", CreatedAt: base.Add(time.Hour), Review: entity.Review{Status: entity.StatusDeleted}})

	all, err := s.ListActivities(context.Background(), entity.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)

	deleted, err := s.ListActivities(context.Background(), entity.Filter{Statuses: []entity.Status{entity.StatusDeleted}})
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, "c", deleted[0].ID)

	tech, err := s.ListActivities(context.Background(), entity.Filter{Categories: []string{"Tech"}, Statuses: []entity.Status{entity.StatusApproved}})
	require.NoError(t, err)
	require.Len(t, tech, 1)
	assert.Equal(t, "b", tech[0].ID)
}

func TestClaimEvents(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		for i := 0; i < 3; i++ {
			if err := tx.AppendEvent(ctx, &entity.ReviewEvent{Kind: entity.KindActivity, EntityID: "a1", Action: "created"}); err != nil {
				return err
			}
		}
		return nil
	}))

	first, err := s.ClaimEvents(ctx, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, int64(1), first[0].ID)

	second, err := s.ClaimEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, int64(3), second[0].ID)

	require.NoError(t, s.MarkPublished(ctx, []int64{1}))
	require.NoError(t, s.ReleaseClaims(ctx, []int64{2, 3}))

	again, err := s.ClaimEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, again, 2)
	assert.Equal(t, int64(2), again[0].ID)
	assert.Equal(t, int64(3), again[1].ID)
}

func TestCanceledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return nil
	})
	assert.ErrorIs(t, err, apperr.ErrStorage)
}
