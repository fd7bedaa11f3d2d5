package creds

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Brawl345/imagequery/logger"
	"github.com/Brawl345/imagequery/model"
	"github.com/Brawl345/imagequery/plugin"
	"github.com/Brawl345/imagequery/utils"
	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/rs/xid"
)

var log = logger.New("creds")

type Plugin struct {
	credentialService model.CredentialService
}

func New(credentialService model.CredentialService) *Plugin {
	return &Plugin{
		credentialService: credentialService,
	}
}

func (*Plugin) Name() string {
	return "creds"
}

// Commands are admin-only and stay out of the menu.
func (*Plugin) Commands() []gotgbot.BotCommand {
	return nil
}

func (p *Plugin) Handlers(botInfo *gotgbot.User) []plugin.Handler {
	return []plugin.Handler{
		&plugin.CommandHandler{
			Trigger:     regexp.MustCompile(fmt.Sprintf(`(?i)^/creds(?:@%s)?$`, botInfo.Username)),
			HandlerFunc: p.onGet,
			AdminOnly:   true,
			PrivateOnly: true,
		},
		&plugin.CommandHandler{
			Trigger:     regexp.MustCompile(fmt.Sprintf(`(?i)^/creds_add(?:@%s)? ([^\s]+) (.+)$`, botInfo.Username)),
			HandlerFunc: p.onAdd,
			AdminOnly:   true,
			PrivateOnly: true,
		},
		&plugin.CommandHandler{
			Trigger:     regexp.MustCompile(fmt.Sprintf(`(?i)^/creds_del(?:@%s)? ([^\s]+)$`, botInfo.Username)),
			HandlerFunc: p.onDelete,
			AdminOnly:   true,
			PrivateOnly: true,
		},
	}
}

// Format lists the credentials sorted by name.
func Format(creds map[string]string) string {
	if len(creds) == 0 {
		return "<i>No credentials stored yet</i>"
	}

	names := make([]string, 0, len(creds))
	for name := range creds {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("<b>%s</b>:\n<code>%s</code>\n", utils.Escape(name), utils.Escape(creds[name])))
	}
	return sb.String()
}

func (p *Plugin) onGet(b *gotgbot.Bot, c plugin.GobotContext) error {
	opts := utils.ReplyOptions(c.EffectiveMessage.MessageId)
	opts.ProtectContent = true
	_, err := c.EffectiveMessage.Reply(b, Format(p.credentialService.GetAllCredentials()), opts)
	return err
}

func (p *Plugin) onAdd(b *gotgbot.Bot, c plugin.GobotContext) error {
	key := strings.ToLower(c.Matches[1])
	value := c.Matches[2]

	err := p.credentialService.SetKey(key, value)
	if err != nil {
		guid := xid.New().String()
		log.Err(err).
			Str("guid", guid).
			Str("key", key).
			Msg("Error adding key")
		_, err := c.EffectiveMessage.Reply(b, fmt.Sprintf("❌ Failed to save the key.%s", utils.EmbedGUID(guid)),
			utils.ReplyOptions(c.EffectiveMessage.MessageId))
		return err
	}

	_, err = c.EffectiveMessage.Reply(b, "✅ Key saved", utils.ReplyOptions(c.EffectiveMessage.MessageId))
	return err
}

func (p *Plugin) onDelete(b *gotgbot.Bot, c plugin.GobotContext) error {
	key := strings.ToLower(c.Matches[1])

	err := p.credentialService.DeleteKey(key)
	if errors.Is(err, model.ErrNotFound) {
		_, err := c.EffectiveMessage.Reply(b, "❌ Key does not exist", utils.ReplyOptions(c.EffectiveMessage.MessageId))
		return err
	}
	if err != nil {
		guid := xid.New().String()
		log.Err(err).
			Str("guid", guid).
			Str("key", key).
			Msg("Error deleting key")
		_, err := c.EffectiveMessage.Reply(b, fmt.Sprintf("❌ Failed to delete the key.%s", utils.EmbedGUID(guid)),
			utils.ReplyOptions(c.EffectiveMessage.MessageId))
		return err
	}

	_, err = c.EffectiveMessage.Reply(b, "✅ Key deleted", utils.ReplyOptions(c.EffectiveMessage.MessageId))
	return err
}
