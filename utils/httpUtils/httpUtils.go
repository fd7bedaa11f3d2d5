package httpUtils

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/Brawl345/imagequery/logger"
)

var (
	log               = logger.New("httpUtils")
	DefaultHttpClient *http.Client
)

func init() {
	DefaultHttpClient = createHTTPClient()
}

func createHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = 7 * time.Second
	transport.ResponseHeaderTimeout = 15 * time.Second
	transport.MaxIdleConnsPerHost = 20
	transport.IdleConnTimeout = 5 * time.Minute

	client := &http.Client{
		Transport: transport,
	}

	return client
}

func closeBody(body io.ReadCloser) {
	err := body.Close()
	if err != nil {
		log.Err(err).Msg("Failed to close response body")
	}
}

// GetRequest fetches url and decodes the JSON body into result.
// Failures to reach the server or non-200 replies come back as *TransportError,
// bodies that do not decode into result as *ParseError.
func GetRequest(ctx context.Context, url string, headers map[string]string, result any) error {
	log.Debug().
		Str("url", url).
		Interface("headers", headers).
		Send()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &TransportError{Op: "GET", Err: err}
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := DefaultHttpClient.Do(req)
	if err != nil {
		return &TransportError{Op: "GET", Err: err}
	}
	defer closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &TransportError{
			Op: "GET",
			Err: &HttpError{
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
			},
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: "GET", Err: err}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return &ParseError{Op: "GET", Err: err}
	}

	log.Debug().
		Str("url", url).
		Interface("result", result).
		Send()
	return nil
}

// GetBytes downloads url and returns the raw body. On a non-200 reply the bytes that
// were read are still returned together with an *HttpError.
func GetBytes(ctx context.Context, url string) ([]byte, error) {
	log.Debug().
		Str("url", url).
		Send()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := DefaultHttpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return body, err
	}

	if resp.StatusCode != http.StatusOK {
		return body, &HttpError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	return body, nil
}

// Downloader adapts GetBytes to the download interface of the search orchestrator.
type Downloader struct{}

func (Downloader) Download(ctx context.Context, url string) ([]byte, error) {
	return GetBytes(ctx, url)
}
