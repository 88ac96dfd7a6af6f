package query

import (
	"context"
	"net/url"
	"testing"

	"eventreg/entity"
	"eventreg/internal/storage"
	"eventreg/internal/storage/memory"
	"eventreg/lib/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterFromValues(t *testing.T) {
	v := url.Values{
		"submitter_id": {" 21CS001 "},
		"q":            {"cs0"},
		"category":     {"Tech,Quiz", "Health"},
		"activity_id":  {"a1"},
		"id":           {"a2"},
		"status":       {"Pending,approved"},
		"cohort_year":  {"2025", "2026"},
	}

	f, err := FilterFromValues(v)
	require.NoError(t, err)
	assert.Equal(t, "21CS001", f.SubmitterID)
	assert.Equal(t, "cs0", f.SubmitterLike)
	assert.Equal(t, []string{"Tech", "Quiz", "Health"}, f.Categories)
	assert.Equal(t, []string{"a1", "a2"}, f.ActivityIDs)
	assert.Equal(t, []entity.Status{entity.StatusPending, entity.StatusApproved}, f.Statuses)
	assert.Equal(t, []int{2025, 2026}, f.CohortYears)
}

func TestFilterFromValuesRejectsBadInput(t *testing.T) {
	_, err := FilterFromValues(url.Values{"status": {"archived"}})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = FilterFromValues(url.Values{"cohort_year": {"next"}})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestFilterFromEmptyValues(t *testing.T) {
	f, err := FilterFromValues(url.Values{"category": {" , "}})
	require.NoError(t, err)
	assert.Equal(t, entity.Filter{}, f)
}

func TestPendingCounts(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	pending := entity.Review{Status: entity.StatusPending}
	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		_ = tx.InsertActivity(ctx, &entity.Activity{ID: "a1", Review: pending})
		_ = tx.InsertActivity(ctx, &entity.Activity{ID: "a2", Review: entity.Review{Status: entity.StatusApproved}})
		_ = tx.InsertRegistration(ctx, &entity.Registration{ID: "r1", SubmitterID: "S1", ActivityID: "a2", Review: pending})
		_ = tx.InsertRecord(ctx, &entity.AchievementRecord{ID: "x1", Review: pending})
		return tx.InsertRecord(ctx, &entity.AchievementRecord{ID: "x2", Review: pending})
	}))

	counts, err := New(store).PendingCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[entity.Kind]int{
		entity.KindActivity:     1,
		entity.KindRegistration: 1,
		entity.KindRecord:       2,
	}, counts)
}

func TestListUnknownKind(t *testing.T) {
	_, err := New(memory.New()).List(context.Background(), entity.Kind("event"), entity.Filter{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
