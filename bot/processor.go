package bot

import (
	"errors"
	"fmt"

	"github.com/Brawl345/imagequery/plugin"
	"github.com/Brawl345/imagequery/utils"
	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/rs/xid"
)

// Processor hands incoming messages to every plugin handler whose trigger matches.
type Processor struct {
	plugins   []plugin.Plugin
	printMsgs bool
}

func NewProcessor(printMsgs bool) *Processor {
	return &Processor{printMsgs: printMsgs}
}

func (p *Processor) Name() string {
	return "processor"
}

func (p *Processor) CheckUpdate(b *gotgbot.Bot, ctx *ext.Context) bool {
	return ctx.Message != nil && ctx.EffectiveUser != nil
}

func (p *Processor) HandleUpdate(b *gotgbot.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}

	if p.printMsgs {
		log.Info().
			Int64("chat_id", ctx.EffectiveChat.Id).
			Int64("user_id", ctx.EffectiveUser.Id).
			Str("text", text).
			Msg("Incoming message")
	}

	for _, h := range p.matchingHandlers(&b.User, ctx.EffectiveUser, msg, text) {
		go p.run(b, ctx, h)
	}

	return nil
}

type matchedHandler struct {
	plugin       string
	handler      *plugin.CommandHandler
	matches      []string
	namedMatches map[string]string
}

func (p *Processor) matchingHandlers(botInfo *gotgbot.User, sender *gotgbot.User, msg *gotgbot.Message, text string) []matchedHandler {
	var matched []matchedHandler

	for _, plg := range p.plugins {
		for _, h := range plg.Handlers(botInfo) {
			handler, ok := h.(*plugin.CommandHandler)
			if !ok {
				continue
			}

			matches, namedMatches, ok := plugin.Match(handler.Command(), text)
			if !ok {
				continue
			}

			log.Debug().Msgf("Matched plugin '%s': %s", plg.Name(), handler.Trigger)

			if handler.AdminOnly && !utils.IsAdmin(sender) {
				log.Debug().Msg("User is not an admin.")
				continue
			}

			if handler.PrivateOnly && !utils.IsPrivate(msg) {
				continue
			}

			matched = append(matched, matchedHandler{
				plugin:       plg.Name(),
				handler:      handler,
				matches:      matches,
				namedMatches: namedMatches,
			})
		}
	}

	return matched
}

func (p *Processor) run(b *gotgbot.Bot, ctx *ext.Context, h matchedHandler) {
	defer func() {
		if r := recover(); r != nil {
			guid := xid.New().String()
			log.Err(errors.New("panic")).
				Str("guid", guid).
				Int64("chat_id", ctx.EffectiveChat.Id).
				Int64("user_id", ctx.EffectiveUser.Id).
				Str("text", ctx.EffectiveMessage.Text).
				Str("component", h.plugin).
				Msgf("%s", r)
			_, _ = ctx.EffectiveMessage.Reply(b, fmt.Sprintf("❌ An error occurred.%s", utils.EmbedGUID(guid)), utils.ReplyOptions(ctx.EffectiveMessage.MessageId))
		}
	}()

	err := h.handler.Run(b, plugin.GobotContext{
		Context:      ctx,
		Matches:      h.matches,
		NamedMatches: h.namedMatches,
	})
	if err != nil {
		guid := xid.New().String()
		log.Err(err).
			Str("guid", guid).
			Int64("chat_id", ctx.EffectiveChat.Id).
			Int64("user_id", ctx.EffectiveUser.Id).
			Str("text", ctx.EffectiveMessage.Text).
			Str("component", h.plugin).
			Send()
		_, _ = ctx.EffectiveMessage.Reply(b, fmt.Sprintf("❌ An error occurred.%s", utils.EmbedGUID(guid)), utils.ReplyOptions(ctx.EffectiveMessage.MessageId))
	}
}
