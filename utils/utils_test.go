package utils

import (
	"testing"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/stretchr/testify/assert"
)

func TestEscape(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;Tom &amp; Jerry&#39;s&lt;/b&gt;", Escape("<b>Tom &amp; Jerry's</b>"))
}

func TestEmbedGUID(t *testing.T) {
	assert.Equal(t, "\n(<code>abc</code>)", EmbedGUID("abc"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "Käse...", Truncate("Käsekuchen", 4))
}

func TestIsAdmin(t *testing.T) {
	t.Setenv("ADMIN_ID", "42")
	assert.True(t, IsAdmin(&gotgbot.User{Id: 42}))
	assert.False(t, IsAdmin(&gotgbot.User{Id: 7}))
	assert.False(t, IsAdmin(nil))

	t.Setenv("ADMIN_ID", "")
	assert.False(t, IsAdmin(&gotgbot.User{Id: 0}))
}

func TestReplyOptions(t *testing.T) {
	opts := ReplyOptions(99)
	assert.Equal(t, int64(99), opts.ReplyParameters.MessageId)
	assert.Equal(t, gotgbot.ParseModeHTML, opts.ParseMode)
	assert.Zero(t, DefaultSendOptions.ReplyParameters.MessageId)
}
