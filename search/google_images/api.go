package google_images

import (
	"errors"
	"strings"

	"google.golang.org/api/customsearch/v1"
)

var ErrNoImagesFound = errors.New("no images found")

type GoogleImage struct {
	Link       string
	Mime       string
	ContextURL string
}

func fromResult(item *customsearch.Result) GoogleImage {
	gi := GoogleImage{
		Link: item.Link,
		Mime: item.Mime,
	}
	if item.Image != nil {
		gi.ContextURL = item.Image.ContextLink
	}
	return gi
}

func (gi GoogleImage) ImageLink() string {
	return gi.Link
}

func (gi GoogleImage) ContextLink() string {
	return gi.ContextURL
}

func (gi GoogleImage) IsGIF() bool {
	return strings.ToLower(gi.Mime) == "image/gif"
}
