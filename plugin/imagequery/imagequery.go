package imagequery

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/Brawl345/imagequery/logger"
	"github.com/Brawl345/imagequery/plugin"
	"github.com/Brawl345/imagequery/search"
	"github.com/Brawl345/imagequery/search/google_images"
	"github.com/Brawl345/imagequery/utils"
	"github.com/Brawl345/imagequery/utils/httpUtils"
	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/rs/xid"
)

var log = logger.New("imagequery")

type Plugin struct {
	sender     Sender
	summaries  search.SummaryFetcher
	images     search.ImageSearcher
	downloader search.Downloader
	opts       search.Options

	mu       sync.Mutex
	sessions map[int64]*session
}

func New(sender Sender, summaries search.SummaryFetcher, images search.ImageSearcher,
	downloader search.Downloader, opts search.Options) *Plugin {
	return &Plugin{
		sender:     sender,
		summaries:  summaries,
		images:     images,
		downloader: downloader,
		opts:       opts,
		sessions:   make(map[int64]*session),
	}
}

func (p *Plugin) Name() string {
	return "imagequery"
}

func (p *Plugin) Commands() []gotgbot.BotCommand {
	return []gotgbot.BotCommand{
		{
			Command:     "iq",
			Description: "<query> - Wikipedia summary and public domain images",
		},
	}
}

func (p *Plugin) Handlers(botInfo *gotgbot.User) []plugin.Handler {
	return []plugin.Handler{
		&plugin.CommandHandler{
			Trigger:     regexp.MustCompile(fmt.Sprintf(`(?is)^/iq(?:@%s)?(?:\s+(?P<query>.+))?$`, botInfo.Username)),
			HandlerFunc: p.onSearch,
		},
		&plugin.CommandHandler{
			Trigger:     regexp.MustCompile(fmt.Sprintf(`(?i)^/iq_reset(?:@%s)?$`, botInfo.Username)),
			HandlerFunc: p.onReset,
			AdminOnly:   true,
		},
	}
}

// session returns the chat's session, creating it on first use.
func (p *Plugin) session(chatID int64) *session {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[chatID]
	if !ok {
		s = &session{
			chatID: chatID,
			sender: p.sender,
			log:    log,
		}
		s.orchestrator = search.New(p.summaries, p.images, p.downloader, s, s, s, p.opts)
		p.sessions[chatID] = s
	}
	return s
}

func (p *Plugin) onSearch(b *gotgbot.Bot, c plugin.GobotContext) error {
	query := strings.TrimSpace(c.NamedMatches["query"])
	if query == "" {
		_, err := c.EffectiveMessage.Reply(b, "❌ Usage: <code>/iq &lt;query&gt;</code>", utils.ReplyOptions(c.EffectiveMessage.MessageId))
		return err
	}

	s := p.session(c.EffectiveChat.Id)
	if !p.start(s, c.EffectiveMessage.MessageId, query) {
		_, err := c.EffectiveMessage.Reply(b, "⏳ A search is already running in this chat.", utils.ReplyOptions(c.EffectiveMessage.MessageId))
		return err
	}
	return nil
}

// start runs a cycle replying to messageID. It returns false without touching the session
// when a cycle is already running or the chat is locked.
func (p *Plugin) start(s *session, messageID int64, query string) bool {
	if !s.running.TryLock() {
		return false
	}
	defer s.running.Unlock()

	if !s.Interactable() {
		return false
	}

	s.replyTo.Store(messageID)
	p.run(s, query)
	return true
}

// run executes a cycle for the session and reports failures the orchestrator did not
// already show through the notifier.
func (p *Plugin) run(s *session, query string) {
	err := s.orchestrator.Run(context.Background(), query)
	if err == nil {
		return
	}

	var parseErr *httpUtils.ParseError
	var loggedErr *search.LoggedError
	switch {
	case errors.As(err, &parseErr):
		// "No results found" is already shown
	case errors.Is(err, search.ErrSearchInProgress):
		s.SetNotification(false, "A search is already running in this chat.")
	case errors.Is(err, google_images.ErrMissingCredentials):
		s.SetInteractable(true)
		s.SetNotification(false, "Image search is not configured.")
	case errors.As(err, &loggedErr):
		s.SetError(loggedErr.GUID)
	default:
		guid := xid.New().String()
		log.Err(err).
			Str("guid", guid).
			Int64("chat_id", s.chatID).
			Str("query", query).
			Msg("Image query failed")
		s.SetError(guid)
	}
}

func (p *Plugin) onReset(b *gotgbot.Bot, c plugin.GobotContext) error {
	s := p.session(c.EffectiveChat.Id)
	s.SetInteractable(true)
	_, err := c.EffectiveMessage.Reply(b, "✅ Search re-enabled for this chat.", utils.ReplyOptions(c.EffectiveMessage.MessageId))
	return err
}
