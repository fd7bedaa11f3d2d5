package wikipedia

import (
	"cmp"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Brawl345/imagequery/logger"
	"github.com/Brawl345/imagequery/utils/httpUtils"
	"golang.org/x/exp/slices"
)

var log = logger.New("wikipedia")

const DefaultLanguage = "en"

type Client struct {
	// BaseURL overrides https://{lang}.wikipedia.org, used by tests.
	BaseURL  string
	Language string
}

func New(language string) *Client {
	if language == "" {
		language = DefaultLanguage
	}
	return &Client{Language: language}
}

func (c *Client) endpoint() url.URL {
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err == nil {
			u.Path = "/w/api.php"
			return *u
		}
		log.Err(err).Str("base_url", c.BaseURL).Msg("Invalid base URL, falling back to wikipedia.org")
	}

	language := c.Language
	if language == "" {
		language = DefaultLanguage
	}
	return url.URL{
		Scheme: "https",
		Host:   fmt.Sprintf("%s.wikipedia.org", language),
		Path:   "/w/api.php",
	}
}

// FetchSummary returns the plain-text intro of the article matching query.
// Errors are *httpUtils.TransportError or *httpUtils.ParseError; the latter wraps
// ErrNoEntry when the response holds no usable page.
func (c *Client) FetchSummary(ctx context.Context, query string) (string, error) {
	requestUrl := c.endpoint()

	q := requestUrl.Query()
	q.Set("format", "json")
	q.Set("action", "query")
	q.Set("prop", "extracts")
	q.Set("exintro", "1")
	q.Set("explaintext", "1")
	q.Set("redirects", "1")
	q.Set("titles", query)

	requestUrl.RawQuery = q.Encode()

	var response Response
	err := httpUtils.GetRequest(ctx, requestUrl.String(), map[string]string{"User-Agent": httpUtils.UserAgent}, &response)
	if err != nil {
		return "", err
	}

	page, ok := response.firstPage()
	if !ok {
		return "", &httpUtils.ParseError{Op: "wikipedia", Err: ErrNoEntry}
	}

	extract := strings.TrimSpace(page.Extract)
	if page.Missing != nil || extract == "" {
		return "", &httpUtils.ParseError{Op: "wikipedia", Err: ErrNoEntry}
	}

	return extract, nil
}

// firstPage picks the entry with the lowest numeric page id key, so the choice does not
// depend on map iteration order. Non-numeric keys sort after numeric ones.
func (r *Response) firstPage() (Page, bool) {
	if len(r.Query.Pages) == 0 {
		return Page{}, false
	}

	keys := make([]string, 0, len(r.Query.Pages))
	for key := range r.Query.Pages {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, comparePageKeys)

	return r.Query.Pages[keys[0]], true
}

func comparePageKeys(a, b string) int {
	idA, errA := strconv.ParseInt(a, 10, 64)
	idB, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(idA, idB)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
