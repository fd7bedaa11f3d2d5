package bot

import (
	"errors"
	"os"
	"time"

	"github.com/Brawl345/imagequery/logger"
	"github.com/Brawl345/imagequery/plugin"
	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

var log = logger.New("bot")

type Bot struct {
	*gotgbot.Bot
	processor *Processor
}

func New(token string) (*Bot, error) {
	if token == "" {
		return nil, errors.New("BOT_TOKEN is not set")
	}

	b, err := gotgbot.NewBot(token, nil)
	if err != nil {
		return nil, err
	}

	_, printMsgs := os.LookupEnv("PRINT_MSGS")

	return &Bot{
		Bot:       b,
		processor: NewProcessor(printMsgs),
	}, nil
}

func (b *Bot) RegisterPlugin(plg plugin.Plugin) {
	if plg == nil {
		panic("plugin is nil")
	}
	b.processor.plugins = append(b.processor.plugins, plg)
}

func (b *Bot) commands() []gotgbot.BotCommand {
	var commands []gotgbot.BotCommand
	for _, plg := range b.processor.plugins {
		commands = append(commands, plg.Commands()...)
	}
	return commands
}

// Start registers the plugin commands and blocks while polling for updates.
func (b *Bot) Start() error {
	_, err := b.SetMyCommands(b.commands(), nil)
	if err != nil {
		log.Err(err).Msg("Failed to set commands")
	}

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *gotgbot.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			log.Err(err).Msg("Error while handling update")
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	dispatcher.AddHandler(b.processor)

	updater := ext.NewUpdater(dispatcher, nil)
	err = updater.StartPolling(b.Bot, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &gotgbot.GetUpdatesOpts{
			Timeout:        9,
			AllowedUpdates: []string{"message"},
			RequestOpts: &gotgbot.RequestOpts{
				Timeout: 10 * time.Second,
			},
		},
	})
	if err != nil {
		return err
	}

	log.Info().Msgf("Logged in as @%s (%d)", b.Username, b.Id)
	updater.Idle()
	return nil
}
