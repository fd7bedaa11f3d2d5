package imagequery

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Brawl345/imagequery/search"
	"github.com/Brawl345/imagequery/utils"
	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/rs/zerolog"
)

// Sender is the part of *gotgbot.Bot a chat session talks to.
type Sender interface {
	SendChatAction(chatId int64, action string, opts *gotgbot.SendChatActionOpts) (bool, error)
	SendMessage(chatId int64, text string, opts *gotgbot.SendMessageOpts) (*gotgbot.Message, error)
	SendPhoto(chatId int64, photo gotgbot.InputFileOrString, opts *gotgbot.SendPhotoOpts) (*gotgbot.Message, error)
	SendMediaGroup(chatId int64, media []gotgbot.InputMedia, opts *gotgbot.SendMediaGroupOpts) ([]gotgbot.Message, error)
	DeleteMessages(chatId int64, messageIds []int64, opts *gotgbot.DeleteMessagesOpts) (bool, error)
}

// session binds one chat to its own orchestrator. It is the result sink, notifier and
// controls of that orchestrator.
type session struct {
	chatID int64
	sender Sender
	log    zerolog.Logger

	orchestrator *search.Orchestrator

	// running is held by the plugin for a whole cycle, including the choice of replyTo.
	running sync.Mutex
	locked  atomic.Bool
	replyTo atomic.Int64

	mu      sync.Mutex
	results []int64
}

func (s *session) replyParameters() *gotgbot.ReplyParameters {
	return &gotgbot.ReplyParameters{
		MessageId:                s.replyTo.Load(),
		AllowSendingWithoutReply: true,
	}
}

func (s *session) remember(messageIDs ...int64) {
	s.mu.Lock()
	s.results = append(s.results, messageIDs...)
	s.mu.Unlock()
}

func (s *session) UpdateLoadingBar(progress search.Progress) {
	s.log.Debug().
		Int64("chat_id", s.chatID).
		Int("index", progress.Index).
		Int("total", progress.Total).
		Int("size", progress.Size).
		AnErr("download_err", progress.Err).
		Msg("Image downloaded")

	if progress.Done() {
		return
	}

	_, err := s.sender.SendChatAction(s.chatID, gotgbot.ChatActionUploadPhoto, nil)
	if err != nil {
		s.log.Err(err).Int64("chat_id", s.chatID).Msg("Failed to send chat action")
	}
}

func (s *session) DeleteSearchResults() {
	s.mu.Lock()
	results := s.results
	s.results = nil
	s.mu.Unlock()

	if len(results) == 0 {
		return
	}

	_, err := s.sender.DeleteMessages(s.chatID, results, nil)
	if err != nil {
		s.log.Err(err).
			Int64("chat_id", s.chatID).
			Int("count", len(results)).
			Msg("Failed to delete previous search results")
	}
}

func caption(contextLink string) string {
	caption := fmt.Sprintf("<a href=\"%s\">🌐 Source</a>", utils.Escape(contextLink))
	if contextLink == "" || len([]rune(caption)) > utils.MaxCaptionLength {
		return ""
	}
	return caption
}

// isPhoto rejects empty and oversize payloads and anything that does not sniff as an image,
// such as the HTML body of a failed download. Telegram drops a whole media group when one
// item is not an image.
func isPhoto(data []byte) bool {
	if len(data) == 0 || len(data) > utils.MaxPhotosizeUpload {
		return false
	}
	return strings.HasPrefix(http.DetectContentType(data), "image/")
}

func (s *session) SetImages(images [][]byte, contextLinks []string) {
	var media []gotgbot.InputMedia
	for i, data := range images {
		if !isPhoto(data) {
			s.log.Debug().
				Int64("chat_id", s.chatID).
				Int("index", i).
				Int("size", len(data)).
				Msg("Skipping payload that is not an uploadable image")
			continue
		}

		var contextLink string
		if i < len(contextLinks) {
			contextLink = contextLinks[i]
		}

		media = append(media, gotgbot.InputMediaPhoto{
			Media:     gotgbot.InputFileByReader(fmt.Sprintf("image%d.jpg", i+1), bytes.NewReader(data)),
			Caption:   caption(contextLink),
			ParseMode: gotgbot.ParseModeHTML,
		})
	}

	for start := 0; start < len(media); start += utils.MaxMediaGroupSize {
		end := min(start+utils.MaxMediaGroupSize, len(media))
		s.sendMedia(media[start:end])
	}
}

func (s *session) sendMedia(media []gotgbot.InputMedia) {
	if len(media) == 1 {
		photo := media[0].(gotgbot.InputMediaPhoto)
		msg, err := s.sender.SendPhoto(s.chatID, photo.Media, &gotgbot.SendPhotoOpts{
			Caption:             photo.Caption,
			ParseMode:           gotgbot.ParseModeHTML,
			ReplyParameters:     s.replyParameters(),
			DisableNotification: true,
		})
		if err != nil {
			s.log.Err(err).Int64("chat_id", s.chatID).Msg("Failed to send photo")
			return
		}
		s.remember(msg.MessageId)
		return
	}

	msgs, err := s.sender.SendMediaGroup(s.chatID, media, &gotgbot.SendMediaGroupOpts{
		ReplyParameters:     s.replyParameters(),
		DisableNotification: true,
	})
	if err != nil {
		s.log.Err(err).
			Int64("chat_id", s.chatID).
			Int("count", len(media)).
			Msg("Failed to send media group")
		return
	}

	for _, msg := range msgs {
		s.remember(msg.MessageId)
	}
}

func (s *session) SetWikipediaText(text string) {
	if text == "" {
		return
	}

	msg, err := s.sender.SendMessage(s.chatID, utils.Escape(utils.Truncate(text, utils.MaxMessageLength-10)), &gotgbot.SendMessageOpts{
		ReplyParameters:     s.replyParameters(),
		LinkPreviewOptions:  &gotgbot.LinkPreviewOptions{IsDisabled: true},
		DisableNotification: true,
		ParseMode:           gotgbot.ParseModeHTML,
	})
	if err != nil {
		s.log.Err(err).Int64("chat_id", s.chatID).Msg("Failed to send Wikipedia text")
		return
	}
	s.remember(msg.MessageId)
}

func (s *session) SetNotification(success bool, message string) {
	icon := "❌"
	if success {
		icon = "✅"
	}

	_, err := s.sender.SendMessage(s.chatID, fmt.Sprintf("%s %s", icon, utils.Escape(message)), &gotgbot.SendMessageOpts{
		ReplyParameters:     s.replyParameters(),
		DisableNotification: true,
		ParseMode:           gotgbot.ParseModeHTML,
	})
	if err != nil {
		s.log.Err(err).Int64("chat_id", s.chatID).Msg("Failed to send notification")
	}
}

// SetError reports a failure that was logged under guid.
func (s *session) SetError(guid string) {
	_, err := s.sender.SendMessage(s.chatID, fmt.Sprintf("❌ An error occurred.%s", utils.EmbedGUID(guid)), &gotgbot.SendMessageOpts{
		ReplyParameters:     s.replyParameters(),
		DisableNotification: true,
		ParseMode:           gotgbot.ParseModeHTML,
	})
	if err != nil {
		s.log.Err(err).Int64("chat_id", s.chatID).Msg("Failed to send error message")
	}
}

func (s *session) SetInteractable(enabled bool) {
	s.locked.Store(!enabled)
}

func (s *session) Interactable() bool {
	return !s.locked.Load()
}
