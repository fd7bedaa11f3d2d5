package wikipedia

import "errors"

var ErrNoEntry = errors.New("no wikipedia entry")

type (
	Response struct {
		Query struct {
			Pages map[string]Page `json:"pages"`
		} `json:"query"`
	}

	Page struct {
		PageID  int64   `json:"pageid"`
		Title   string  `json:"title"`
		Extract string  `json:"extract"`
		Missing *string `json:"missing"` // present (as "") for pages that do not exist
	}
)
