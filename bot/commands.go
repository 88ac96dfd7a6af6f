package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"eventreg/entity"
	"eventreg/lib/apperr"
	"eventreg/lib/logger"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

const queryTimeout = 5 * time.Second

func (t *TgBot) start(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if t.db == nil {
		return nil
	}
	chatId := ctx.EffectiveUser.Id
	user := t.findUser(chatId)

	// already linked: re-enable
	if user != nil {
		if err := t.db.SetTelegramEnabled(chatId, true, user.LogLevel); err != nil {
			t.reportError(chatId, "/start", err)
			return nil
		}
		t.plainResponse(chatId, "Alerts ENABLED")
		t.loadUsers()
		return nil
	}

	args := strings.Fields(ctx.EffectiveMessage.Text)
	if len(args) < 2 {
		t.plainResponse(chatId, "Send `/start <api token>` to link this chat\\.")
		return nil
	}

	linked, err := t.db.LinkTelegram(args[1], chatId, ctx.EffectiveUser.Username)
	if apperr.CodeOf(err) == apperr.CodeUnauthorized {
		t.plainResponse(chatId, "Token not recognized\\.")
		return nil
	}
	if err != nil {
		t.reportError(chatId, "/start link", err)
		return nil
	}
	if !linked.IsAdmin() {
		_ = t.db.SetTelegramEnabled(chatId, false, linked.LogLevel)
		t.plainResponse(chatId, "Only administrators receive alerts\\.")
		t.loadUsers()
		return nil
	}
	if linked.LogLevel == 0 {
		_ = t.db.SetTelegramEnabled(chatId, true, int(t.minLogLevel))
	}

	t.plainResponse(chatId, fmt.Sprintf("Linked as *%s*\\. Alerts ENABLED\\.", Sanitize(linked.Username)))
	t.loadUsers()
	t.notifyAdmins(fmt.Sprintf("Admin chat linked: %s", Sanitize(linked.Username)))
	return nil
}

func (t *TgBot) stop(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if t.db == nil {
		return nil
	}
	chatId := ctx.EffectiveUser.Id
	user := t.findUser(chatId)
	if user == nil {
		return nil
	}

	if err := t.db.SetTelegramEnabled(chatId, false, user.LogLevel); err != nil {
		t.reportError(chatId, "/stop", err)
		return nil
	}
	t.plainResponse(chatId, "Alerts DISABLED")
	t.loadUsers()
	return nil
}

func (t *TgBot) level(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if t.db == nil {
		return nil
	}
	chatId := ctx.EffectiveUser.Id
	if !t.requireAdmin(chatId) {
		return nil
	}
	user := t.findUser(chatId)

	args := strings.Fields(ctx.EffectiveMessage.Text)
	if len(args) < 2 {
		current := slog.Level(user.LogLevel).String()
		t.plainResponse(chatId, fmt.Sprintf("Current alert level: %s\nAvailable levels: debug, info, warn, error", Sanitize(current)))
		return nil
	}

	level, ok := logger.ParseLevel(args[1])
	if !ok {
		t.plainResponse(chatId, fmt.Sprintf("Invalid level: %s\nAvailable levels: debug, info, warn, error", Sanitize(args[1])))
		return nil
	}
	if err := t.db.SetTelegramEnabled(chatId, true, int(level)); err != nil {
		t.reportError(chatId, "/level", err)
		return nil
	}
	t.plainResponse(chatId, fmt.Sprintf("Alert level set to: %s", Sanitize(level.String())))
	t.loadUsers()
	return nil
}

func (t *TgBot) pending(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.requireAdmin(chatId) || t.reviews == nil {
		return nil
	}

	c, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	counts, err := t.reviews.PendingCounts(c)
	if err != nil {
		t.reportError(chatId, "/pending", err)
		return nil
	}
	t.plainResponse(chatId, formatPending(counts))
	return nil
}

func formatPending(counts map[entity.Kind]int) string {
	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)

	var sb strings.Builder
	sb.WriteString("*Pending reviews*\n")
	for _, kind := range kinds {
		sb.WriteString(fmt.Sprintf("%s: `%d`\n", Sanitize(kind), counts[entity.Kind(kind)]))
	}
	return sb.String()
}

func (t *TgBot) slots(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.requireAdmin(chatId) || t.reviews == nil {
		return nil
	}
	args := strings.Fields(ctx.EffectiveMessage.Text)
	if len(args) < 2 {
		t.plainResponse(chatId, "Usage: `/slots <activity id>`")
		return nil
	}

	c, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	counters, err := t.reviews.ActivitySlots(c, args[1])
	if apperr.CodeOf(err) == apperr.CodeNotFound {
		t.plainResponse(chatId, "Activity not found\\.")
		return nil
	}
	if err != nil {
		t.reportError(chatId, "/slots", err)
		return nil
	}

	capacity := "unlimited"
	if counters.Capacity != nil {
		capacity = fmt.Sprintf("%d", *counters.Capacity)
	}
	t.plainResponse(chatId, fmt.Sprintf("*%s*\ncapacity: `%s`\naccepted: `%d`\nopen: `%d`",
		Sanitize(counters.ActivityID), capacity, counters.Accepted, counters.Open))
	return nil
}

func (t *TgBot) help(_ *tgbotapi.Bot, ctx *ext.Context) error {
	var sb strings.Builder
	sb.WriteString("*Commands*\n")
	for _, cmd := range t.commands() {
		sb.WriteString(fmt.Sprintf("/%s \\- %s\n", cmd.name, Sanitize(cmd.description)))
	}
	t.plainResponse(ctx.EffectiveUser.Id, sb.String())
	return nil
}
