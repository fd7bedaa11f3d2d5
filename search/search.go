// Package search runs image query cycles: a Wikipedia summary lookup and an image search
// for the same query, followed by sequential downloads of every image found. Results go
// to a ResultSink, user-facing status to a Notifier.
package search

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Brawl345/imagequery/logger"
	"github.com/Brawl345/imagequery/model"
	"github.com/Brawl345/imagequery/utils/httpUtils"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"
)

const (
	MsgNoResults    = "No results found"
	MsgNetworkError = "Network error."
	FallbackSummary = "No Wikipedia entry was found."
)

var (
	ErrEmptyQuery       = errors.New("query is empty")
	ErrSearchInProgress = errors.New("a search is already in progress")
)

type (
	SummaryFetcher interface {
		FetchSummary(ctx context.Context, query string) (string, error)
	}

	ImageSearcher interface {
		SearchImages(ctx context.Context, query string) ([]model.ImageSearchImage, error)
	}

	Downloader interface {
		Download(ctx context.Context, url string) ([]byte, error)
	}

	// ResultSink displays the outcome of a cycle.
	ResultSink interface {
		UpdateLoadingBar(progress Progress)
		DeleteSearchResults()
		SetImages(images [][]byte, contextLinks []string)
		SetWikipediaText(text string)
	}

	Notifier interface {
		SetNotification(success bool, message string)
	}

	// Controls are the input field and submit button that start a cycle.
	Controls interface {
		SetInteractable(enabled bool)
	}

	// Progress is reported once per finished download, in link order.
	Progress struct {
		Index int // zero-based
		Total int
		Link  string
		Size  int
		Err   error
	}

	Options struct {
		// ReleaseControlsOnTransportError re-enables the controls when the image search
		// fails at the transport level. Off by default, which leaves them disabled.
		ReleaseControlsOnTransportError bool
	}

	// LoggedError wraps a failure the orchestrator has already logged under GUID.
	LoggedError struct {
		GUID string
		Err  error
	}

	Orchestrator struct {
		summaries  SummaryFetcher
		images     ImageSearcher
		downloader Downloader
		sink       ResultSink
		notifier   Notifier
		controls   Controls
		opts       Options
		log        zerolog.Logger

		mu          sync.Mutex
		summaryText string
		downloaded  [][]byte
	}
)

func (e *LoggedError) Error() string {
	return e.Err.Error()
}

func (e *LoggedError) Unwrap() error {
	return e.Err
}

func (p Progress) Done() bool {
	return p.Index+1 >= p.Total
}

func New(summaries SummaryFetcher, images ImageSearcher, downloader Downloader,
	sink ResultSink, notifier Notifier, controls Controls, opts Options) *Orchestrator {
	return &Orchestrator{
		summaries:  summaries,
		images:     images,
		downloader: downloader,
		sink:       sink,
		notifier:   notifier,
		controls:   controls,
		opts:       opts,
		log:        logger.New("search"),
	}
}

// WithLogger replaces the component logger.
func (o *Orchestrator) WithLogger(log zerolog.Logger) *Orchestrator {
	o.log = log
	return o
}

// SummaryText returns the summary of the last cycle that produced one.
// It may be stale when the latest summary request failed.
func (o *Orchestrator) SummaryText() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.summaryText
}

// Run executes one search cycle for query. Only one cycle runs at a time;
// a concurrent call fails with ErrSearchInProgress.
func (o *Orchestrator) Run(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return ErrEmptyQuery
	}

	if !o.mu.TryLock() {
		return ErrSearchInProgress
	}
	defer o.mu.Unlock()

	o.controls.SetInteractable(false)

	applySummary := o.startSummary(ctx, query)
	defer applySummary()

	images, err := o.images.SearchImages(ctx, query)
	if err != nil {
		var parseErr *httpUtils.ParseError
		if errors.As(err, &parseErr) {
			o.controls.SetInteractable(true)
			o.notifier.SetNotification(false, MsgNoResults)
			return err
		}

		guid := xid.New().String()
		o.log.Err(err).
			Str("guid", guid).
			Str("query", query).
			Msg("Error while receiving image search results")
		if o.opts.ReleaseControlsOnTransportError {
			o.controls.SetInteractable(true)
		}
		return &LoggedError{GUID: guid, Err: err}
	}

	links := make([]string, len(images))
	contextLinks := make([]string, len(images))
	for i, image := range images {
		links[i] = image.ImageLink()
		contextLinks[i] = image.ContextLink()
	}

	for i, link := range links {
		if err := ctx.Err(); err != nil {
			o.downloaded = o.downloaded[:0]
			o.controls.SetInteractable(true)
			return err
		}

		data, err := o.downloader.Download(ctx, link)
		if err != nil {
			o.log.Debug().
				Err(err).
				Str("link", link).
				Msg("Image download failed")
		}
		if data == nil {
			data = []byte{}
		}
		o.downloaded = append(o.downloaded, data)

		o.sink.UpdateLoadingBar(Progress{
			Index: i,
			Total: len(links),
			Link:  link,
			Size:  len(data),
			Err:   err,
		})
	}

	applySummary()

	o.sink.DeleteSearchResults()
	o.sink.SetImages(slices.Clone(o.downloaded), contextLinks)
	o.sink.SetWikipediaText(o.summaryText)

	clear(o.downloaded)
	o.downloaded = o.downloaded[:0]

	o.controls.SetInteractable(true)
	return nil
}

type summaryResult struct {
	text string
	err  error
}

// startSummary fetches the summary in the background. The returned function waits for
// it and applies the outcome to the orchestrator; only its first call has an effect.
// It must be called with o.mu held.
func (o *Orchestrator) startSummary(ctx context.Context, query string) func() {
	ch := make(chan summaryResult, 1)
	go func() {
		text, err := o.summaries.FetchSummary(ctx, query)
		ch <- summaryResult{text: text, err: err}
	}()

	return sync.OnceFunc(func() {
		res := <-ch
		if res.err == nil {
			o.summaryText = res.text
			return
		}

		var parseErr *httpUtils.ParseError
		if errors.As(res.err, &parseErr) {
			o.log.Debug().
				Err(res.err).
				Str("query", query).
				Msg("No usable Wikipedia entry")
			o.summaryText = FallbackSummary
			return
		}

		o.log.Warn().
			Err(res.err).
			Str("query", query).
			Msg("Error while receiving Wikipedia summary")
		o.notifier.SetNotification(false, MsgNetworkError)
	})
}
