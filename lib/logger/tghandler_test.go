package logger

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	text  string
	level slog.Level
}

type stubNotifier struct {
	sent []sentMessage
}

func (s *stubNotifier) SendMessageWithLevel(msg string, level slog.Level) {
	s.sent = append(s.sent, sentMessage{text: msg, level: level})
}

func newTestLogger(n Notifier) *slog.Logger {
	base := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewTelegramHandler(base, n, nil, slog.LevelWarn))
}

func TestTelegramHandlerForwardsAboveMinLevel(t *testing.T) {
	n := &stubNotifier{}
	log := newTestLogger(n)

	log.Info("routine")
	log.Warn("capacity low")
	log.Error("storage down", slog.String("error", errors.New("timeout").Error()))

	require.Len(t, n.sent, 2)
	assert.Equal(t, slog.LevelWarn, n.sent[0].level)
	assert.Contains(t, n.sent[0].text, "capacity low")
	assert.Equal(t, slog.LevelError, n.sent[1].level)
	assert.Contains(t, n.sent[1].text, "```error timeout ```")
}

func TestTelegramHandlerCarriesAttrsAndGroups(t *testing.T) {
	n := &stubNotifier{}
	log := newTestLogger(n).With(slog.String("mod", "admission")).WithGroup("enroll")

	log.Error("failed", slog.String("activity", "a-1"))

	require.Len(t, n.sent, 1)
	text := n.sent[0].text
	assert.Contains(t, text, "`enroll.failed`")
	assert.Contains(t, text, "mod: admission")
	assert.Contains(t, text, "activity: a-1")
}

func TestTelegramHandlerWithoutNotifier(t *testing.T) {
	log := newTestLogger(nil)
	assert.NotPanics(t, func() { log.Error("nobody listens") })
}

func TestParseLevel(t *testing.T) {
	level, ok := ParseLevel("warn")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelWarn, level)

	level, ok = ParseLevel("ERROR")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelError, level)

	_, ok = ParseLevel("loud")
	assert.False(t, ok)
}
