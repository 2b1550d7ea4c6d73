package refdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// ErrDisallowed is returned when a portal's robots.txt forbids the download
var ErrDisallowed = errors.New("disallowed by robots.txt")

// robotsPolicy caches robots.txt per host for the lifetime of a fetcher
type robotsPolicy struct {
	mu     sync.Mutex
	hosts  map[string]*robotstxt.RobotsData
	client    *http.Client
	userAgent string
	agent     string // product token matched against robots groups
}

func newRobotsPolicy(client *http.Client, userAgent string) *robotsPolicy {
	return &robotsPolicy{
		hosts:  make(map[string]*robotstxt.RobotsData),
		client:    client,
		userAgent: userAgent,
		agent:     productToken(userAgent),
	}
}

// check returns the crawl delay for rawURL, or ErrDisallowed. A robots.txt
// that cannot be fetched allows everything.
func (p *robotsPolicy) check(ctx context.Context, rawURL string) (time.Duration, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("parse URL: %w", err)
	}

	data := p.lookup(ctx, u)
	if data == nil {
		return 0, nil
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	group := data.FindGroup(p.agent)
	if !group.Test(path) {
		return 0, fmt.Errorf("%w: %s", ErrDisallowed, path)
	}
	return group.CrawlDelay, nil
}

func (p *robotsPolicy) lookup(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	p.mu.Lock()
	data, ok := p.hosts[u.Host]
	p.mu.Unlock()
	if ok {
		return data
	}

	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	// FromResponse maps 4xx to allow-all and 5xx to disallow-all
	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}

	p.mu.Lock()
	p.hosts[u.Host] = data
	p.mu.Unlock()
	return data
}

// productToken strips the version and comment from a user agent: "permitcheck/v1 (+url)" -> "permitcheck"
func productToken(ua string) string {
	parts := strings.Fields(ua)
	if len(parts) == 0 {
		return ua
	}
	product, _, _ := strings.Cut(parts[0], "/")
	return product
}
