package bot

import (
	"fmt"
	"log/slog"
	"strings"

	"eventreg/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

func (t *TgBot) plainResponse(chatId int64, text string) {
	if text == "" {
		t.log.With("id", chatId).Debug("empty message")
		return
	}

	_, err := t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{
		ParseMode: "MarkdownV2",
	})
	if err != nil {
		t.log.With(slog.Int64("id", chatId)).Warn("sending message", sl.Err(err))
		_, err = t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{})
		if err != nil {
			t.log.With(slog.Int64("id", chatId)).Error("sending safe message", sl.Err(err))
		}
	}
}

// Sanitize escapes MarkdownV2 reserved characters.
func Sanitize(input string) string {
	const reservedChars = "\\_{}#+-.!|()[]=*`>~"
	var sb strings.Builder
	for _, char := range input {
		if strings.ContainsRune(reservedChars, char) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(char)
	}
	return sb.String()
}

func (t *TgBot) requireAdmin(chatId int64) bool {
	user := t.findUser(chatId)
	return user != nil && user.IsAdmin()
}

func (t *TgBot) notifyAdmins(msg string) {
	t.SendMessageWithLevel(msg, slog.LevelError)
}

func (t *TgBot) reportError(chatId int64, command string, err error) {
	t.log.Warn("bot command failed",
		slog.String("command", command),
		slog.Int64("user_id", chatId),
		sl.Err(err),
	)
	t.plainResponse(chatId, fmt.Sprintf("Command `%s` failed\\. Please try again later\\.", Sanitize(command)))
}
