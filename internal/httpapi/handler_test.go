package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/ppiankov/permitcheck/internal/cache"
	"github.com/ppiankov/permitcheck/internal/catalog"
	"github.com/ppiankov/permitcheck/internal/metrics"
	"github.com/ppiankov/permitcheck/internal/model"
	"github.com/ppiankov/permitcheck/internal/pipeline"
	"github.com/ppiankov/permitcheck/internal/worker"
)

const listedBody = `{"id":"job-1","property":{"property_type":"detached","listed_grade":"II"},"proposal":{"description":"single storey rear extension"}}`

type HandlerSuite struct {
	suite.Suite
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	router   chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.registry = prometheus.NewRegistry()
	s.metrics = metrics.New(s.registry)
	s.router = s.newRouter(nil)
}

func (s *HandlerSuite) newRouter(limiter *worker.Limiter) chi.Router {
	p := pipeline.New(catalog.MustNew())
	rc := cache.NewResultCache(cache.NewMemoryCache(time.Minute, time.Minute), p.Catalog().Version(), 0)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	h := New(p, rc, logger, s.metrics)
	return NewRouter(h, RouterOptions{
		Limiter:        limiter,
		RequestTimeout: time.Second,
		Gatherer:       s.registry,
	})
}

func (s *HandlerSuite) do(router chi.Router, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestCheck() {
	s.Run("listed building needs permission", func() {
		rec := s.do(s.router, http.MethodPost, "/v1/check", listedBody)
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp CheckResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal("job-1", resp.ID)
		s.NotEmpty(resp.RequestID)
		s.Equal(model.RequiresPlanningPermission, resp.Result.Determination)
		s.Equal(model.DecidedByListedBuilding, resp.Result.DecidedBy.Kind)
		s.Equal(model.ConfidenceHigh, resp.Result.Confidence.Level)
	})

	s.Run("repeat is served from cache", func() {
		rec := s.do(s.router, http.MethodPost, "/v1/check", listedBody)
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp CheckResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.True(resp.Cached)
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.CacheLookups.WithLabelValues("hit")))
	})

	s.Run("unknown property type gives a low confidence result", func() {
		body := `{"property":{"property_type":"bungalow"},"proposal":{"description":"rear extension","extension_depth_m":3}}`
		rec := s.do(s.router, http.MethodPost, "/v1/check", body)
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp CheckResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal(model.ConfidenceLow, resp.Result.Confidence.Level)
		s.NotEmpty(resp.Result.InputIssues)
	})
}

func (s *HandlerSuite) TestCheckNamedConservationArea() {
	body := `{"property":{"property_type":"semi_detached","conservation_area":"Belsize"},` +
		`"proposal":{"description":"loft conversion with rear dormer","dormer_location":"rear","roof_volume_m3":30}}`
	rec := s.do(s.router, http.MethodPost, "/v1/check", body)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp CheckResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	s.Equal(model.RequiresPlanningPermission, resp.Result.Determination)
	s.Equal(model.HeritageAmber, resp.Result.Heritage)
	s.Require().NotNil(resp.Result.Overlay)
	s.Equal(model.OverlayConservation, resp.Result.Overlay.Kind)
}

func (s *HandlerSuite) TestCheckRejections() {
	s.Run("invalid enum lists the field", func() {
		body := `{"property":{"property_type":"detached","listed_grade":"IV"},"proposal":{"description":"porch"}}`
		rec := s.do(s.router, http.MethodPost, "/v1/check", body)
		s.Require().Equal(http.StatusBadRequest, rec.Code)

		var resp errorBody
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal(CodeInvalidRequest, resp.Error)
		s.Require().Len(resp.Fields, 1)
		s.Equal("property.listed_grade", resp.Fields[0].Field)
	})

	s.Run("negative measurement", func() {
		body := `{"property":{"property_type":"detached"},"proposal":{"description":"rear extension","extension_depth_m":-2}}`
		rec := s.do(s.router, http.MethodPost, "/v1/check", body)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unknown field", func() {
		body := `{"property":{"property_type":"detached"},"proposal":{"description":"porch"},"colour":"red"}`
		rec := s.do(s.router, http.MethodPost, "/v1/check", body)
		s.Require().Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), CodeBadRequest)
	})

	s.Run("malformed JSON", func() {
		rec := s.do(s.router, http.MethodPost, "/v1/check", `{"property":`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("wrong content type", func() {
		rec := s.do(s.router, http.MethodPost, "/v1/check", listedBody, "Content-Type", "text/plain")
		s.Equal(http.StatusUnsupportedMediaType, rec.Code)
	})

	s.Run("bad narrative flag", func() {
		rec := s.do(s.router, http.MethodPost, "/v1/check?narrative=maybe", listedBody)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Equal(float64(2), testutil.ToFloat64(s.metrics.RequestRejected.WithLabelValues("validation")))
}

func (s *HandlerSuite) TestRateLimit() {
	router := s.newRouter(worker.NewLimiter(0.001, 1))

	first := s.do(router, http.MethodGet, "/v1/classes", "")
	s.Equal(http.StatusOK, first.Code)

	second := s.do(router, http.MethodGet, "/v1/classes", "")
	s.Equal(http.StatusTooManyRequests, second.Code)
	s.Equal("1", second.Header().Get("Retry-After"))

	// Health checks are not limited
	s.Equal(http.StatusOK, s.do(router, http.MethodGet, "/healthz", "").Code)
}

func (s *HandlerSuite) TestRequestIDEchoed() {
	rec := s.do(s.router, http.MethodPost, "/v1/check", listedBody, RequestIDHeader, "trace-123")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("trace-123", rec.Header().Get(RequestIDHeader))

	var resp CheckResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	s.Equal("trace-123", resp.RequestID)
}

func (s *HandlerSuite) TestCatalogEndpoints() {
	s.Run("classes", func() {
		rec := s.do(s.router, http.MethodGet, "/v1/classes", "")
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp struct {
			Version string            `json:"catalog_version"`
			Classes []model.RuleClass `json:"classes"`
		}
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.NotEmpty(resp.Version)
		s.NotEmpty(resp.Classes)
	})

	s.Run("areas", func() {
		rec := s.do(s.router, http.MethodGet, "/v1/areas", "")
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp struct {
			Areas []model.Article4Area `json:"article4_areas"`
		}
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.NotEmpty(resp.Areas)
	})

	s.Run("health", func() {
		rec := s.do(s.router, http.MethodGet, "/healthz", "")
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Body.String(), `"status":"ok"`)
	})
}

func (s *HandlerSuite) TestMetricsEndpoint() {
	s.Require().Equal(http.StatusOK, s.do(s.router, http.MethodPost, "/v1/check", listedBody).Code)

	rec := s.do(s.router, http.MethodGet, "/metrics", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.True(strings.Contains(rec.Body.String(), "permitcheck_check_outcomes_total"))
}

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, http.StatusInternalServerError, CodeInternal, "catalog failed")

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("bad request includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, http.StatusBadRequest, CodeBadRequest, "invalid input")

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error_description"] != "invalid input" {
			t.Fatalf("expected error_description to be returned for bad request")
		}
	})
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.1:443", "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.7"}, "10.0.0.1:443", "198.51.100.7"},
		{"remote v4", nil, "192.0.2.1:5555", "192.0.2.1"},
		{"remote v6", nil, "[::1]:5555", "::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
