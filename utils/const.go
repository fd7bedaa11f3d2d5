package utils

import "time"

const (
	Day  = 24 * time.Hour
	Week = 7 * Day

	MaxMediaGroupSize  = 10       // Telegram accepts 2-10 items per media group
	MaxCaptionLength   = 1024     // Max length of a media caption
	MaxMessageLength   = 4096     // Max length of a text message
	MaxPhotosizeUpload = 10000000 // Max filesize of photos that can be uploaded to Telegram = 10 MB
)
