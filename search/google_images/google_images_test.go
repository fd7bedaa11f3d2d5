package google_images

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Brawl345/imagequery/model"
	"github.com/Brawl345/imagequery/utils/httpUtils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCredentials map[string]string

func (f fakeCredentials) GetAllCredentials() map[string]string { return f }
func (f fakeCredentials) GetKey(name string) string            { return f[name] }
func (f fakeCredentials) SetKey(name, value string) error      { f[name] = value; return nil }
func (f fakeCredentials) DeleteKey(name string) error          { delete(f, name); return nil }

type fakeCache struct {
	cached  map[string][]model.ImageSearchImage
	saved   map[string][]model.ImageSearchImage
	saveErr error
}

func (f *fakeCache) GetImages(query string) (model.ImageSearchImages, error) {
	return model.ImageSearchImages{QueryID: 1, Images: f.cached[query]}, nil
}

func (f *fakeCache) SaveImages(query string, wrapper *model.ImageSearchImages) (int64, error) {
	if f.saved == nil {
		f.saved = make(map[string][]model.ImageSearchImage)
	}
	f.saved[query] = wrapper.Images
	return 2, f.saveErr
}

func credentials() fakeCredentials {
	return fakeCredentials{
		"google_api_key":          "test-key",
		"google_search_engine_id": "test-cx",
	}
}

func newServer(t *testing.T, status int, body string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/customsearch/v1"), r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("key"))
		assert.Equal(t, "test-cx", q.Get("cx"))
		assert.Equal(t, "cat", q.Get("q"))
		assert.Equal(t, "1", q.Get("filter"))
		assert.Equal(t, "active", q.Get("safe"))
		assert.Equal(t, "image", q.Get("searchType"))
		assert.Equal(t, "medium", q.Get("imgSize"))
		assert.Equal(t, "cc_publicdomain", q.Get("rights"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSearchImages(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, http.StatusOK, `{
		"items": [
			{"link": "https://img.example/a.jpg", "mime": "image/jpeg", "image": {"contextLink": "https://page.example/x"}},
			{"link": "https://img.example/b.gif", "mime": "image/gif", "image": {"contextLink": "https://page.example/y"}}
		]
	}`, &calls)

	cache := &fakeCache{}
	c := New(credentials(), cache)
	c.Endpoint = srv.URL + "/"

	images, err := c.SearchImages(context.Background(), "cat")
	require.NoError(t, err)
	require.Len(t, images, 2)

	assert.Equal(t, "https://img.example/a.jpg", images[0].ImageLink())
	assert.Equal(t, "https://page.example/x", images[0].ContextLink())
	assert.False(t, images[0].IsGIF())
	assert.Equal(t, "https://img.example/b.gif", images[1].ImageLink())
	assert.Equal(t, "https://page.example/y", images[1].ContextLink())
	assert.True(t, images[1].IsGIF())

	assert.Equal(t, images, cache.saved["cat"])
	assert.Equal(t, int32(1), calls.Load())
}

func TestSearchImagesServesCache(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, http.StatusOK, `{"items": []}`, &calls)

	cached := []model.ImageSearchImage{GoogleImage{Link: "A", ContextURL: "X"}}
	c := New(credentials(), &fakeCache{cached: map[string][]model.ImageSearchImage{"cat": cached}})
	c.Endpoint = srv.URL + "/"

	images, err := c.SearchImages(context.Background(), "cat")
	require.NoError(t, err)
	assert.Equal(t, cached, images)
	assert.Zero(t, calls.Load())
}

func TestSearchImagesCacheWriteFailureIsIgnored(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, http.StatusOK, `{"items": [{"link": "A", "image": {"contextLink": "X"}}]}`, &calls)

	c := New(credentials(), &fakeCache{saveErr: errors.New("db down")})
	c.Endpoint = srv.URL + "/"

	images, err := c.SearchImages(context.Background(), "cat")
	require.NoError(t, err)
	assert.Len(t, images, 1)
}

func TestSearchImagesErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		transport bool
		noImages  bool
	}{
		{name: "no items", status: http.StatusOK, body: `{"kind": "customsearch#search"}`, noImages: true},
		{name: "malformed json", status: http.StatusOK, body: `{"items": [`},
		{name: "not json", status: http.StatusOK, body: `<html></html>`},
		{name: "wrong shape", status: http.StatusOK, body: `{"items": "nope"}`},
		{name: "server error", status: http.StatusInternalServerError, body: `{"error": {"code": 500, "message": "boom"}}`, transport: true},
		{name: "quota", status: http.StatusTooManyRequests, body: `{"error": {"code": 429, "message": "quota"}}`, transport: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := newServer(t, tt.status, tt.body, &calls)

			c := New(credentials(), nil)
			c.Endpoint = srv.URL + "/"

			images, err := c.SearchImages(context.Background(), "cat")
			require.Error(t, err)
			assert.Nil(t, images)

			if tt.transport {
				var transportErr *httpUtils.TransportError
				require.ErrorAs(t, err, &transportErr)
				var httpErr *httpUtils.HttpError
				require.ErrorAs(t, err, &httpErr)
				assert.Equal(t, tt.status, httpErr.StatusCode)
				assert.Equal(t, fmt.Sprintf("%d %s", tt.status, http.StatusText(tt.status)), httpErr.Status)
				return
			}

			var parseErr *httpUtils.ParseError
			require.ErrorAs(t, err, &parseErr)
			if tt.noImages {
				assert.ErrorIs(t, err, ErrNoImagesFound)
			}
		})
	}
}

func TestSearchImagesMissingCredentials(t *testing.T) {
	c := New(fakeCredentials{}, nil)
	_, err := c.SearchImages(context.Background(), "cat")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}
