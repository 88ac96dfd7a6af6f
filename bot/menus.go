package bot

import (
	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
)

type command struct {
	name        string
	description string
	handler     handlers.Response
}

// commands is the single source for both update routing and the Telegram command menu.
func (t *TgBot) commands() []command {
	return []command{
		{"start", "Link this chat: /start <api token>", t.start},
		{"stop", "Disable alerts", t.stop},
		{"level", "Set alert level: /level warn", t.level},
		{"pending", "Pending review queues", t.pending},
		{"slots", "Slot counters: /slots <activity id>", t.slots},
		{"help", "Show available commands", t.help},
	}
}

func (t *TgBot) setDefaultCommands(cmds []command) {
	menu := make([]tgbotapi.BotCommand, 0, len(cmds))
	for _, c := range cmds {
		menu = append(menu, tgbotapi.BotCommand{Command: c.name, Description: c.description})
	}
	_, err := t.api.SetMyCommands(menu, &tgbotapi.SetMyCommandsOpts{
		Scope: tgbotapi.BotCommandScopeDefault{},
	})
	if err != nil {
		t.log.Warn("setting default commands", "error", err)
	}
}
