package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"eventreg/entity"
	"eventreg/internal/storage"
	"eventreg/internal/storage/memory"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWriter struct {
	mu     sync.Mutex
	err    error
	topics []string
	msgs   []kafka.Message
}

func (s *stubWriter) WriteMessages(_ context.Context, topic string, msgs ...kafka.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.topics = append(s.topics, topic)
	s.msgs = append(s.msgs, msgs...)
	return nil
}

func (s *stubWriter) delivered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedEvents(t *testing.T, store *memory.Store, n int) {
	t.Helper()
	at := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		for i := 0; i < n; i++ {
			err := tx.AppendEvent(ctx, &entity.ReviewEvent{
				Kind:       entity.KindRegistration,
				EntityID:   "reg-1",
				Action:     "approve",
				FromStatus: entity.StatusPending,
				ToStatus:   entity.StatusApproved,
				Actor:      "admin",
				OccurredAt: at,
			})
			if err != nil {
				return err
			}
		}
		return nil
	}))
}

func TestProcessBatchDelivers(t *testing.T) {
	store := memory.New()
	seedEvents(t, store, 3)
	writer := &stubWriter{}
	d := NewDispatcher(store, writer, "review-events", time.Second, 2, discard())

	n, err := d.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = d.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = d.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	require.Len(t, writer.msgs, 3)
	assert.Equal(t, []string{"review-events", "review-events"}, writer.topics)

	msg := writer.msgs[0]
	assert.Equal(t, "reg-1", string(msg.Key))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, "registration.approve", string(msg.Headers[0].Value))

	var decoded entity.ReviewEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, int64(1), decoded.ID)
	assert.Equal(t, entity.StatusApproved, decoded.ToStatus)
}

func TestProcessBatchReleasesOnFailure(t *testing.T) {
	store := memory.New()
	seedEvents(t, store, 2)
	writer := &stubWriter{err: errors.New("broker unavailable")}
	d := NewDispatcher(store, writer, "review-events", time.Second, 10, discard())

	n, err := d.ProcessBatch(context.Background())
	assert.Error(t, err)
	assert.Zero(t, n)

	writer.err = nil
	n, err = d.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStartStopsOnCancel(t *testing.T) {
	store := memory.New()
	seedEvents(t, store, 1)
	writer := &stubWriter{}
	d := NewDispatcher(store, writer, "review-events", 10*time.Millisecond, 10, discard())

	ctx, cancel := context.WithCancel(context.Background())
	go d.Start(ctx)

	require.Eventually(t, func() bool { return writer.delivered() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}
