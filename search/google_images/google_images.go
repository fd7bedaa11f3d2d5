package google_images

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Brawl345/imagequery/logger"
	"github.com/Brawl345/imagequery/model"
	"github.com/Brawl345/imagequery/utils/httpUtils"
	"github.com/rs/zerolog"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

var ErrMissingCredentials = errors.New("google_api_key or google_search_engine_id not set")

type Client struct {
	// Endpoint overrides the Custom Search base path, used by tests.
	Endpoint string

	credentialService model.CredentialService
	cache             model.ImageSearchService
	log               zerolog.Logger
}

// New creates an image search client. cache may be nil.
func New(credentialService model.CredentialService, cache model.ImageSearchService) *Client {
	return &Client{
		credentialService: credentialService,
		cache:             cache,
		log:               logger.New("google_images"),
	}
}

// SearchImages returns public-domain, medium sized, safe-search filtered images for query
// in search-result order. Cached result sets are served without calling the API.
func (c *Client) SearchImages(ctx context.Context, query string) ([]model.ImageSearchImage, error) {
	if c.cache != nil {
		wrapper, err := c.cache.GetImages(query)
		if err != nil {
			c.log.Err(err).
				Str("query", query).
				Msg("Failed to read cached images")
		} else if len(wrapper.Images) > 0 {
			c.log.Debug().
				Str("query", query).
				Int64("query_id", wrapper.QueryID).
				Msg("Serving cached images")
			return wrapper.Images, nil
		}
	}

	apiKey := c.credentialService.GetKey("google_api_key")
	searchEngineID := c.credentialService.GetKey("google_search_engine_id")
	if apiKey == "" || searchEngineID == "" {
		return nil, ErrMissingCredentials
	}

	opts := []option.ClientOption{
		option.WithHTTPClient(httpUtils.DefaultHttpClient),
		option.WithUserAgent(httpUtils.UserAgent),
	}
	if c.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.Endpoint))
	}

	service, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, &httpUtils.TransportError{Op: "google_images", Err: err}
	}

	call := service.Cse.List().
		Cx(searchEngineID).
		Q(query).
		Filter("1").
		Safe("active").
		SearchType("image").
		ImgSize("medium").
		Rights("cc_publicdomain")

	res, err := call.Context(ctx).Do(googleapi.QueryParameter("key", apiKey))
	if err != nil {
		return nil, classify(err)
	}

	if len(res.Items) == 0 {
		return nil, &httpUtils.ParseError{Op: "google_images", Err: ErrNoImagesFound}
	}

	images := make([]model.ImageSearchImage, len(res.Items))
	for i, item := range res.Items {
		images[i] = fromResult(item)
	}

	if c.cache != nil {
		_, err := c.cache.SaveImages(query, &model.ImageSearchImages{Images: images})
		if err != nil {
			c.log.Err(err).
				Str("query", query).
				Msg("Failed to cache images")
		}
	}

	return images, nil
}

func classify(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var apiErr *googleapi.Error

	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, io.ErrUnexpectedEOF):
		return &httpUtils.ParseError{Op: "google_images", Err: err}
	case errors.As(err, &apiErr):
		httpErr := &httpUtils.HttpError{StatusCode: apiErr.Code}
		httpErr.Status = fmt.Sprintf("%d %s", httpErr.StatusCode, httpErr.StatusText())
		return &httpUtils.TransportError{Op: "google_images", Err: httpErr}
	default:
		return &httpUtils.TransportError{Op: "google_images", Err: err}
	}
}
