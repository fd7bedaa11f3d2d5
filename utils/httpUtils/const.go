package httpUtils

// UserAgent identifies the bot towards Wikipedia and image hosts.
const UserAgent = "Imagequery/1.0 (Telegram Bot; +https://github.com/Brawl345/imagequery)"
