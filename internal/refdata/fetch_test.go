package refdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func noSleep(t *testing.T) {
	orig := fetchSleepFunc
	fetchSleepFunc = func(time.Duration) {}
	t.Cleanup(func() { fetchSleepFunc = orig })
}

// portal serves h behind an allow-all robots.txt
func portal(h http.HandlerFunc) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", http.NotFound)
	mux.Handle("/", h)
	return httptest.NewServer(mux)
}

func newTestFetcher() *Fetcher {
	return NewFetcher(5*time.Second, "permitcheck-test", 1<<20, "", "")
}

func TestFetchWithRetry_Success(t *testing.T) {
	server := portal(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "permitcheck-test" {
			t.Errorf("Expected user agent, got %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = fmt.Fprint(w, `{"type":"FeatureCollection","features":[]}`)
	})
	defer server.Close()

	d, err := newTestFetcher().FetchWithRetry(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if d.ContentType != "application/geo+json" {
		t.Errorf("Unexpected content type: %s", d.ContentType)
	}
}

func TestFetchWithRetry_TransientThenSuccess(t *testing.T) {
	noSleep(t)
	var attempts atomic.Int32
	server := portal(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if n == 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = fmt.Fprint(w, "{}")
	})
	defer server.Close()

	if _, err := newTestFetcher().FetchWithRetry(context.Background(), server.URL); err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_PermanentFailure(t *testing.T) {
	noSleep(t)
	var attempts atomic.Int32
	server := portal(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	_, err := newTestFetcher().FetchWithRetry(context.Background(), server.URL)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Fatalf("Expected a 404 status error, got %v", err)
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected 404 not to be retried, got %d attempts", attempts.Load())
	}
}

func TestFetchWithRetry_AllRetriesExhausted(t *testing.T) {
	noSleep(t)
	var attempts atomic.Int32
	server := portal(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	defer server.Close()

	if _, err := newTestFetcher().FetchWithRetry(context.Background(), server.URL); err == nil {
		t.Fatal("Expected error after all retries exhausted")
	}
	if attempts.Load() != fetchAttempts {
		t.Errorf("Expected %d attempts, got %d", fetchAttempts, attempts.Load())
	}
}

func TestFetch_TooLarge(t *testing.T) {
	server := portal(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, strings.Repeat("x", 64))
	})
	defer server.Close()

	f := NewFetcher(5*time.Second, "permitcheck-test", 32, "", "")
	if _, err := f.Fetch(context.Background(), server.URL); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge, got %v", err)
	}
}

func TestIsRetryableFetchError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"503", &StatusError{Code: 503}, true},
		{"500", &StatusError{Code: 500}, true},
		{"429", &StatusError{Code: 429}, true},
		{"404", &StatusError{Code: 404}, false},
		{"403", &StatusError{Code: 403}, false},
		{"transport", errors.New("fetch: connection refused"), true},
		{"bad url", errors.New("create request: invalid URL"), false},
		{"deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableFetchError(tt.err); got != tt.retryable {
				t.Errorf("isRetryableFetchError(%v) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}

func TestLoadURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/areas.geojson", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, sampleGeoJSON)
	})
	mux.HandleFunc("/export", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = fmt.Fprint(w, sampleYAML)
	})
	mux.HandleFunc("/robots.txt", http.NotFound)
	server := httptest.NewServer(mux)
	defer server.Close()

	loader := NewLoader("Camden", "Brent")

	ds, err := loader.LoadURL(context.Background(), newTestFetcher(), server.URL+"/areas.geojson")
	if err != nil {
		t.Fatalf("LoadURL geojson failed: %v", err)
	}
	if len(ds.Areas) == 0 {
		t.Error("Expected Article 4 areas from the GeoJSON export")
	}

	ds, err = loader.LoadURL(context.Background(), newTestFetcher(), server.URL+"/export")
	if err != nil {
		t.Fatalf("LoadURL yaml failed: %v", err)
	}
	if len(ds.Areas) != 2 {
		t.Errorf("Expected 2 areas from the YAML export, got %d", len(ds.Areas))
	}
}

func TestIsURL(t *testing.T) {
	if !IsURL("https://data.london.gov.uk/conservation-areas.geojson") {
		t.Error("Expected https source to be a URL")
	}
	if IsURL("./areas.yaml") {
		t.Error("Expected a path not to be a URL")
	}
}
