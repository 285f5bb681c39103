package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/OFFIS-RIT/citegraph/pkg/loader"
	"github.com/OFFIS-RIT/citegraph/pkg/logger"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// pages larger than this fail to load
	DefaultMaxBodyBytes = 16 << 20
)

// WebPageLoader fetches pages over HTTP and returns the raw response body.
// Concurrent fetches of one URL share a request. Failed fetches are not
// retried.
type WebPageLoader struct {
	client    *http.Client
	userAgent string
	maxBody   int64
	memo      *loader.Memo
}

// NewWebPageLoaderParams configures a WebPageLoader. Zero values use defaults.
// Pages are only kept between calls when CacheTTL is set, so edits to a page
// are seen by the next audit.
type NewWebPageLoaderParams struct {
	Client       *http.Client
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	CacheTTL     time.Duration
	CacheSize    int
}

// NewWebPageLoader creates a new web loader with browser-like request headers.
func NewWebPageLoader(params NewWebPageLoaderParams) *WebPageLoader {
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := params.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	ua := params.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	maxBody := params.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	size := params.CacheSize
	if size <= 0 {
		size = loader.DefaultCacheSize
	}

	return &WebPageLoader{
		client:    client,
		userAgent: ua,
		maxBody:   maxBody,
		memo:      loader.NewMemo(size, params.CacheTTL),
	}
}

// Load fetches file.Path. Transport errors and non-2xx responses are
// reported as loader.ErrFetchFailed.
func (l *WebPageLoader) Load(ctx context.Context, file loader.PageFile) ([]byte, error) {
	return l.memo.Do(loader.CacheKey(file), func() ([]byte, error) {
		return l.fetch(ctx, file.Path)
	})
}

func (l *WebPageLoader) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", loader.ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	start := time.Now()
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", loader.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %s", loader.ErrFetchFailed, pageURL, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %w", loader.ErrFetchFailed, err)
	}
	if int64(len(data)) > l.maxBody {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", loader.ErrFetchFailed, pageURL, l.maxBody)
	}

	logger.Debug("[Loader] fetched page", "url", pageURL, "bytes", len(data), "duration", time.Since(start))
	return data, nil
}
