// Package outbox relays review events written alongside each transition to Kafka.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"eventreg/entity"
	"eventreg/internal/observability"
	"eventreg/internal/storage"
	"eventreg/lib/sl"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error
}

// Dispatcher drains unpublished review events and delivers them to one topic.
type Dispatcher struct {
	source           storage.EventSource
	producer         messageWriter
	topic            string
	pollInterval     time.Duration
	batchSize        int
	log              *slog.Logger
	shutdownComplete chan struct{}
}

func NewDispatcher(source storage.EventSource, producer messageWriter, topic string, pollInterval time.Duration, batchSize int, log *slog.Logger) *Dispatcher {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Dispatcher{
		source:           source,
		producer:         producer,
		topic:            topic,
		pollInterval:     pollInterval,
		batchSize:        batchSize,
		log:              log.With(sl.Module("outbox.dispatcher")),
		shutdownComplete: make(chan struct{}),
	}
}

// Start runs the polling loop until ctx is done. Call it in a goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.pollInterval)
	defer func() {
		ticker.Stop()
		close(d.shutdownComplete)
	}()

	for {
		if _, err := d.ProcessBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.log.Error("outbox batch", sl.Err(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Wait blocks until the polling loop has stopped.
func (d *Dispatcher) Wait() {
	<-d.shutdownComplete
}

// ProcessBatch claims, delivers and acknowledges one batch; it returns the number delivered.
func (d *Dispatcher) ProcessBatch(ctx context.Context) (int, error) {
	events, err := d.source.ClaimEvents(ctx, d.batchSize)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	ids := make([]int64, len(events))
	messages := make([]kafka.Message, 0, len(events))
	for i := range events {
		ids[i] = events[i].ID
		msg, err := toMessage(&events[i])
		if err != nil {
			return 0, err
		}
		messages = append(messages, msg)
	}

	if err = d.producer.WriteMessages(ctx, d.topic, messages...); err != nil {
		observability.RecordOutbox(0, len(events))
		d.log.With(slog.Int("count", len(events))).Warn("delivery failed, events returned to queue", sl.Err(err))
		if relErr := d.source.ReleaseClaims(ctx, ids); relErr != nil {
			return 0, relErr
		}
		return 0, err
	}

	if err = d.source.MarkPublished(ctx, ids); err != nil {
		return 0, err
	}
	observability.RecordOutbox(len(events), 0)
	d.log.With(slog.Int("count", len(events))).Debug("events delivered")
	return len(events), nil
}

func toMessage(e *entity.ReviewEvent) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(e.EntityID),
		Value: value,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type())},
			{Key: "entity_kind", Value: []byte(e.Kind)},
		},
	}, nil
}
