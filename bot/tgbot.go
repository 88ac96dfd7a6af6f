// Package bot runs the operator Telegram bot: administrators link their chat with an
// API token, receive log alerts above their level and query review queues.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"eventreg/entity"
	"eventreg/impl/ledger"
	"eventreg/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
)

// Database holds the Telegram link of API users. Implemented by internal/database/mongo.go.
type Database interface {
	GetTelegramUsers() ([]*entity.User, error)
	LinkTelegram(token string, telegramId int64, username string) (*entity.User, error)
	SetTelegramEnabled(id int64, isActive bool, logLevel int) error
}

// Reviews answers operator queries.
type Reviews interface {
	PendingCounts(ctx context.Context) (map[entity.Kind]int, error)
	ActivitySlots(ctx context.Context, activityID string) (*ledger.Counters, error)
}

type TgBot struct {
	log         *slog.Logger
	api         *tgbotapi.Bot
	db          Database
	reviews     Reviews
	mu          sync.RWMutex
	users       map[int64]*entity.User
	minLogLevel slog.Level
	updater     *ext.Updater
}

func NewTgBot(apiKey string, db Database, log *slog.Logger) (*TgBot, error) {
	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("telegram api: %w", err)
	}
	return &TgBot{
		log:         log.With(sl.Module("tgbot")),
		api:         api,
		db:          db,
		minLogLevel: slog.LevelWarn,
		users:       make(map[int64]*entity.User),
	}, nil
}

func (t *TgBot) SetReviews(reviews Reviews) {
	t.reviews = reviews
}

// Start routes commands and blocks while polling; run it in a goroutine.
func (t *TgBot) Start() error {
	t.loadUsers()

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(_ *tgbotapi.Bot, _ *ext.Context, err error) ext.DispatcherAction {
			t.log.Error("handling update", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})

	cmds := t.commands()
	for _, c := range cmds {
		dispatcher.AddHandler(handlers.NewCommand(c.name, c.handler))
	}
	t.setDefaultCommands(cmds)

	t.updater = ext.NewUpdater(dispatcher, nil)
	if err := t.updater.StartPolling(t.api, pollingOpts()); err != nil {
		return fmt.Errorf("start polling: %w", err)
	}
	t.log.With(slog.Int("commands", len(cmds))).Info("telegram bot started")

	t.updater.Idle()
	return nil
}

func pollingOpts() *ext.PollingOpts {
	return &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout:     9,
			RequestOpts: &tgbotapi.RequestOpts{Timeout: 10 * time.Second},
		},
	}
}

func (t *TgBot) Stop() {
	if t.updater != nil {
		t.log.Info("stopping telegram bot")
		_ = t.updater.Stop()
	}
}

// loadUsers replaces the chat cache; called on start and after every link change.
func (t *TgBot) loadUsers() {
	if t.db == nil {
		return
	}
	users, err := t.db.GetTelegramUsers()
	if err != nil {
		t.log.Error("loading linked chats", sl.Err(err))
		return
	}

	linked := make(map[int64]*entity.User, len(users))
	alerting := 0
	for _, user := range users {
		linked[user.TelegramId] = user
		if alertable(user, slog.LevelError) {
			alerting++
		}
	}

	t.mu.Lock()
	t.users = linked
	t.mu.Unlock()

	t.log.With(
		slog.Int("linked", len(linked)),
		slog.Int("alerting", alerting),
	).Debug("chat cache refreshed")
}

func (t *TgBot) findUser(id int64) *entity.User {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.users[id]
}
