package plugin

import (
	"regexp"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

type (
	Plugin interface {
		Name() string

		// Commands will be shown in the menu button
		Commands() []gotgbot.BotCommand

		// Handlers are used to react to specific strings in a message
		Handlers(botInfo *gotgbot.User) []Handler
	}

	Handler interface {
		Command() *regexp.Regexp
		Run(b *gotgbot.Bot, c GobotContext) error
	}

	GobotContext struct {
		*ext.Context
		Matches      []string          // Regex matches
		NamedMatches map[string]string // Named Regex matches
	}

	GobotHandlerFunc func(b *gotgbot.Bot, c GobotContext) error

	CommandHandler struct {
		Trigger     *regexp.Regexp
		HandlerFunc GobotHandlerFunc
		AdminOnly   bool
		PrivateOnly bool
	}
)

func (h *CommandHandler) Command() *regexp.Regexp {
	return h.Trigger
}

func (h *CommandHandler) Run(b *gotgbot.Bot, c GobotContext) error {
	return h.HandlerFunc(b, c)
}

// Match runs trigger against text and collects positional and named submatches.
func Match(trigger *regexp.Regexp, text string) ([]string, map[string]string, bool) {
	matches := trigger.FindStringSubmatch(text)
	if matches == nil {
		return nil, nil, false
	}

	namedMatches := make(map[string]string)
	for i, name := range trigger.SubexpNames() {
		if name != "" {
			namedMatches[name] = matches[i]
		}
	}
	return matches, namedMatches, true
}
