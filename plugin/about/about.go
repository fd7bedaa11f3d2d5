package about

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Brawl345/imagequery/plugin"
	"github.com/Brawl345/imagequery/utils"
	"github.com/PaulSonOfLars/gotgbot/v2"
)

type Plugin struct {
	text string
}

func New(versionInfo utils.VersionInfo) *Plugin {
	return &Plugin{
		text: Text(versionInfo),
	}
}

// Text renders the build information shown by /about.
func Text(versionInfo utils.VersionInfo) string {
	var sb strings.Builder
	sb.WriteString("<b>Imagequery</b>\n")
	sb.WriteString("Send <code>/iq &lt;query&gt;</code> for a Wikipedia summary and public domain images.\n\n")

	revision := versionInfo.Revision
	if revision == "" {
		revision = "unknown"
	}
	sb.WriteString(fmt.Sprintf("<code>%s</code>", revision))
	if !versionInfo.LastCommit.IsZero() {
		sb.WriteString(fmt.Sprintf("\n<i>Committed on %s</i>", versionInfo.LastCommit.Format("2006-01-02 15:04:05")))
	}
	if versionInfo.DirtyBuild {
		sb.WriteString(" (dirty)")
	}
	if versionInfo.GoVersion != "" {
		sb.WriteString(fmt.Sprintf("\n%s %s/%s", versionInfo.GoVersion, versionInfo.GoOS, versionInfo.GoArch))
	}
	return sb.String()
}

func (*Plugin) Name() string {
	return "about"
}

func (*Plugin) Commands() []gotgbot.BotCommand {
	return []gotgbot.BotCommand{
		{
			Command:     "about",
			Description: "Build information",
		},
	}
}

func (p *Plugin) Handlers(botInfo *gotgbot.User) []plugin.Handler {
	return []plugin.Handler{
		&plugin.CommandHandler{
			Trigger:     regexp.MustCompile(fmt.Sprintf(`(?i)^/(?:about|start)(?:@%s)?$`, botInfo.Username)),
			HandlerFunc: p.onAbout,
		},
	}
}

func (p *Plugin) onAbout(b *gotgbot.Bot, c plugin.GobotContext) error {
	_, err := c.EffectiveMessage.Reply(b, p.text, utils.ReplyOptions(c.EffectiveMessage.MessageId))
	return err
}
