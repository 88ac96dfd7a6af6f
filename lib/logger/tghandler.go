package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Notifier delivers a formatted alert; the Telegram bot implements it.
type Notifier interface {
	SendMessageWithLevel(msg string, level slog.Level)
}

// TelegramHandler passes records to the wrapped handler and forwards those at or
// above minLevel to the notifier as MarkdownV2 text.
type TelegramHandler struct {
	handler  slog.Handler
	notifier Notifier
	escape   func(string) string
	minLevel slog.Level
	mu       *sync.Mutex
	attrs    []slog.Attr
	group    string
}

func NewTelegramHandler(handler slog.Handler, notifier Notifier, escape func(string) string, minLevel slog.Level) *TelegramHandler {
	if escape == nil {
		escape = func(s string) string { return s }
	}
	return &TelegramHandler{
		handler:  handler,
		notifier: notifier,
		escape:   escape,
		minLevel: minLevel,
		mu:       &sync.Mutex{},
	}
}

// Enabled defers to the wrapped handler; minLevel only gates forwarding.
func (h *TelegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *TelegramHandler) Handle(ctx context.Context, record slog.Record) error {
	if err := h.handler.Handle(ctx, record); err != nil {
		return err
	}
	if record.Level < h.minLevel || h.notifier == nil {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.notifier.SendMessageWithLevel(h.format(record), record.Level)
	return nil
}

func (h *TelegramHandler) format(record slog.Record) string {
	var sb strings.Builder
	name := record.Message
	if h.group != "" {
		name = h.group + "." + name
	}
	sb.WriteString(fmt.Sprintf("*%s* `%s`", record.Level.String(), strings.ReplaceAll(name, "`", "'")))

	write := func(attr slog.Attr) {
		if attr.Key == "error" {
			sb.WriteString(fmt.Sprintf("\n%s: ```error %s ```", attr.Key, strings.ReplaceAll(attr.Value.String(), "`", "'")))
			return
		}
		sb.WriteString(h.escape(fmt.Sprintf("\n%s: %v", attr.Key, attr.Value)))
	}
	for _, attr := range h.attrs {
		write(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		write(attr)
		return true
	})
	return sb.String()
}

func (h *TelegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	c := *h
	c.handler = h.handler.WithAttrs(attrs)
	c.attrs = newAttrs
	return &c
}

func (h *TelegramHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.handler = h.handler.WithGroup(name)
	if h.group != "" {
		c.group = h.group + "." + name
	} else {
		c.group = name
	}
	return &c
}
