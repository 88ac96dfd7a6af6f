package bot

import (
	"log/slog"

	"eventreg/entity"
)

func (t *TgBot) SendMessage(msg string) {
	t.SendMessageWithLevel(msg, t.minLogLevel)
}

// SendMessageWithLevel delivers msg to every enabled admin chat whose level admits it.
func (t *TgBot) SendMessageWithLevel(msg string, level slog.Level) {
	for _, id := range t.recipients(level) {
		t.plainResponse(id, msg)
	}
}

func (t *TgBot) recipients(level slog.Level) []int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var ids []int64
	for _, user := range t.users {
		if alertable(user, level) {
			ids = append(ids, user.TelegramId)
		}
	}
	return ids
}

func alertable(user *entity.User, level slog.Level) bool {
	return user.TelegramEnabled && user.IsAdmin() && int(level) >= user.LogLevel
}
