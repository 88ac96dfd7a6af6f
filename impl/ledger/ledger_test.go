package ledger

import (
	"context"
	"testing"

	"eventreg/entity"
	"eventreg/internal/storage"
	"eventreg/internal/storage/memory"
	"eventreg/lib/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, store *memory.Store, a *entity.Activity) {
	t.Helper()
	require.NoError(t, store.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		return tx.InsertActivity(ctx, a)
	}))
}

func approved(id string, capacity *int, accepted, open int) *entity.Activity {
	return &entity.Activity{
		ID:       id,
		Capacity: capacity,
		Accepted: accepted,
		Open:     open,
		Review:   entity.Review{Status: entity.StatusApproved},
	}
}

func intPtr(v int) *int {
	return &v
}

func TestReserveUntilFull(t *testing.T) {
	store := memory.New()
	seed(t, store, approved("a1", intPtr(2), 0, 2))
	l := New(store)
	ctx := context.Background()

	require.NoError(t, l.Reserve(ctx, "a1"))
	require.NoError(t, l.Reserve(ctx, "a1"))
	err := l.Reserve(ctx, "a1")
	assert.ErrorIs(t, err, apperr.ErrEventFull)

	c, err := l.Snapshot(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Accepted)
	assert.Equal(t, 0, c.Open)
}

func TestReserveUnlimited(t *testing.T) {
	store := memory.New()
	seed(t, store, approved("a1", nil, 0, 0))
	l := New(store)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Reserve(ctx, "a1"))
	}
	c, err := l.Snapshot(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 5, c.Accepted)
	assert.Equal(t, 0, c.Open)
	assert.Nil(t, c.Capacity)
}

func TestReserveNeedsApprovedActivity(t *testing.T) {
	store := memory.New()
	a := approved("a1", intPtr(3), 0, 3)
	a.Status = entity.StatusDeleted
	seed(t, store, a)

	err := New(store).Reserve(context.Background(), "a1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReleaseClamps(t *testing.T) {
	tests := []struct {
		name             string
		accepted, open   int
		wantAcc, wantOpn int
	}{
		{"one held", 1, 1, 0, 2},
		{"nothing held", 0, 2, 0, 2},
		{"all held", 2, 0, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			seed(t, store, approved("a1", intPtr(2), tt.accepted, tt.open))
			l := New(store)

			require.NoError(t, l.Release(context.Background(), "a1"))
			c, err := l.Snapshot(context.Background(), "a1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantAcc, c.Accepted)
			assert.Equal(t, tt.wantOpn, c.Open)
			assert.LessOrEqual(t, c.Accepted+c.Open, 2)
		})
	}
}

func TestInitialize(t *testing.T) {
	a := &entity.Activity{Capacity: intPtr(7), Accepted: 3, Open: 1}
	Initialize(a)
	assert.Equal(t, 0, a.Accepted)
	assert.Equal(t, 7, a.Open)

	unlimited := &entity.Activity{Accepted: 2, Open: 4}
	Initialize(unlimited)
	assert.Equal(t, 0, unlimited.Accepted)
	assert.Equal(t, 0, unlimited.Open)
}

func TestSnapshotMissing(t *testing.T) {
	_, err := New(memory.New()).Snapshot(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
