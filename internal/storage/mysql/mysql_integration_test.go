//go:build integration

package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"eventreg/entity"
	"eventreg/impl/admission"
	"eventreg/impl/review"
	"eventreg/internal/storage"
	"eventreg/lib/apperr"
	"eventreg/lib/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
)

var fixedNow = time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC)

func openStore(t *testing.T) *MySql {
	t.Helper()
	ctx := context.Background()

	container, err := tcmysql.Run(ctx, "mysql:8.0.36",
		tcmysql.WithDatabase("eventreg"),
		tcmysql.WithUsername("eventreg"),
		tcmysql.WithPassword("eventreg"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "parseTime=true", "loc=UTC", "clientFoundRows=true")
	require.NoError(t, err)

	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return db.PingContext(ctx) == nil }, time.Minute, time.Second)

	store, err := Open(db)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func seed(t *testing.T, store *MySql, id string, capacity int) {
	t.Helper()
	c := capacity
	a := &entity.Activity{
		ID:        id,
		Name:      id,
		Category:  "Tech",
		StartAt:   time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		EndAt:     time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		Location:  "Hall",
		Mode:      "offline",
		Capacity:  &c,
		Open:      capacity,
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow,
		Review:    entity.Review{Status: entity.StatusApproved},
	}
	require.NoError(t, store.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		return tx.InsertActivity(ctx, a)
	}))
}

func controller(store *MySql) *admission.Controller {
	return admission.New(store, review.NewMachine(nil, clock.Fixed(fixedNow)), clock.Fixed(fixedNow), admission.Options{})
}

func TestConcurrentEnrollHoldsCapacity(t *testing.T) {
	store := openStore(t)
	seed(t, store, "a1", 3)
	c := controller(store)

	const callers = 20
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = make(map[apperr.Code]int)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.Enroll(context.Background(), "s", fmt.Sprintf("S%02d", i), "a1")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				codes["ok"]++
				return
			}
			codes[apperr.CodeOf(err)]++
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, codes["ok"])
	assert.Equal(t, callers-3, codes[apperr.CodeEventFull])

	a, err := store.GetActivity(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, 3, a.Accepted)
	assert.Equal(t, 0, a.Open)
}

func TestActiveRegistrationIsUnique(t *testing.T) {
	store := openStore(t)
	seed(t, store, "a1", 5)
	c := controller(store)

	_, err := c.Enroll(context.Background(), "s", "S1", "a1")
	require.NoError(t, err)

	_, err = c.Enroll(context.Background(), "s", "S1", "a1")
	assert.ErrorIs(t, err, apperr.ErrAlreadyRegistered)

	a, err := store.GetActivity(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Accepted)
}

func TestClaimEventsLifecycle(t *testing.T) {
	store := openStore(t)
	seed(t, store, "a1", 5)
	c := controller(store)
	ctx := context.Background()

	_, err := c.Enroll(ctx, "s", "S1", "a1")
	require.NoError(t, err)
	_, err = c.Enroll(ctx, "s", "S2", "a1")
	require.NoError(t, err)

	claimed, err := store.ClaimEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 2)
	assert.Equal(t, "created", claimed[0].Action)

	again, err := store.ClaimEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, again)

	require.NoError(t, store.ReleaseClaims(ctx, []int64{claimed[1].ID}))
	require.NoError(t, store.MarkPublished(ctx, []int64{claimed[0].ID}))

	retry, err := store.ClaimEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, retry, 1)
	assert.Equal(t, claimed[1].ID, retry[0].ID)
}
