package model

import "time"

type (
	ImageSearchImages struct {
		QueryID int64
		Images  []ImageSearchImage
	}

	ImageSearchImage interface {
		ImageLink() string
		ContextLink() string
		IsGIF() bool
	}

	ImageSearchService interface {
		GetImages(query string) (ImageSearchImages, error)
		SaveImages(query string, wrapper *ImageSearchImages) (int64, error)
	}

	ImageSearchCleanupService interface {
		Cleanup(maxAge time.Duration) (int64, error)
	}
)
