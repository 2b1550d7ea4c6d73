package refdata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/ppiankov/permitcheck/internal/util"
)

// StatusError is returned for a non-2xx response
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// ErrTooLarge is returned when a download exceeds the byte limit
var ErrTooLarge = errors.New("reference data exceeds size limit")

// fetchSleepFunc is replaced in tests
var fetchSleepFunc = time.Sleep

const fetchAttempts = 3

// Fetcher downloads reference data exports from council open-data portals
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *robotsPolicy
}

// NewFetcher creates a fetcher. Empty proxies fall back to the environment.
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, httpProxy, httpsProxy string) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{Proxy: util.NewProxyFunc(httpProxy, httpsProxy, "")},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
		maxBytes:  maxBytes,
	}
	f.robots = newRobotsPolicy(f.httpClient, userAgent)
	return f
}

// Download is a fetched export
type Download struct {
	Body        []byte
	ContentType string
	FinalURL    string
}

// Fetch retrieves one URL
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Download, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/geo+json,application/json,application/yaml;q=0.9,*/*;q=0.5")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	// Read one byte past the limit so a truncated export is an error, not a partial dataset
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, f.maxBytes)
	}

	return &Download{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

// FetchWithRetry honours the portal's robots.txt, then retries transient
// failures (5xx, 429, transport errors) with backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*Download, error) {
	delay, err := f.robots.check(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if delay > 0 {
		fetchSleepFunc(delay)
	}

	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			fetchSleepFunc(time.Duration(1<<(attempt-1)) * 500 * time.Millisecond)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		d, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return d, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", fetchAttempts, lastErr)
}

func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return strings.HasPrefix(err.Error(), "fetch: ")
}

// LoadURL downloads and parses reference data. The format comes from the URL
// extension, then the content type; GeoJSON is assumed otherwise.
func (l *Loader) LoadURL(ctx context.Context, f *Fetcher, rawURL string) (*Dataset, error) {
	d, err := f.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("download reference data: %w", err)
	}

	if isYAML(d.FinalURL, d.ContentType) {
		return l.ParseYAML(bytes.NewReader(d.Body))
	}
	return l.ParseGeoJSON(bytes.NewReader(d.Body))
}

func isYAML(rawURL, contentType string) bool {
	if u, err := url.Parse(rawURL); err == nil {
		switch strings.ToLower(path.Ext(u.Path)) {
		case ".yaml", ".yml":
			return true
		case ".json", ".geojson":
			return false
		}
	}
	mt, _, _ := mime.ParseMediaType(contentType)
	return strings.Contains(mt, "yaml")
}

// IsURL reports whether the areas source is a remote http(s) URL
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
