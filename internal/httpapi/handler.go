package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ppiankov/permitcheck/internal/cache"
	"github.com/ppiankov/permitcheck/internal/catalog"
	"github.com/ppiankov/permitcheck/internal/metrics"
	"github.com/ppiankov/permitcheck/internal/model"
	"github.com/ppiankov/permitcheck/internal/validate"
)

const maxBodyBytes = 64 << 10

// Checker defines the compliance operations the API exposes.
type Checker interface {
	Check(prop model.PropertyContext, req model.ProposalRequest) *model.ComplianceResult
	CheckWithNarrative(ctx context.Context, prop model.PropertyContext, req model.ProposalRequest) *model.ComplianceResult
	Catalog() *catalog.Catalog
}

// Handler wires the check and catalog endpoints to the pipeline.
type Handler struct {
	checker Checker
	cache   *cache.ResultCache
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New constructs a handler. cache and metrics may be nil.
func New(checker Checker, rc *cache.ResultCache, logger *slog.Logger, m *metrics.Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		checker: checker,
		cache:   rc,
		logger:  logger,
		metrics: m,
	}
}

// Register mounts the API endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/check", h.HandleCheck)
	r.Get("/classes", h.HandleClasses)
	r.Get("/areas", h.HandleAreas)
}

// CheckResponse is the body of a successful check
type CheckResponse struct {
	ID        string                  `json:"id,omitempty"`
	RequestID string                  `json:"request_id"`
	Cached    bool                    `json:"cached"`
	Result    *model.ComplianceResult `json:"result"`
}

// HandleCheck handles POST /v1/check. ?narrative=true adds the LLM narrative
// when one is configured; those responses bypass the cache.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := RequestIDFrom(ctx)
	start := time.Now()

	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
			WriteError(w, http.StatusUnsupportedMediaType, CodeUnsupportedType, "content type must be application/json")
			return
		}
	}

	var req validate.CheckRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.metrics.IncrementRejected("decode")
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, CodeBadRequest, "request body too large")
			return
		}
		WriteError(w, http.StatusBadRequest, CodeBadRequest, "malformed JSON: "+err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		h.metrics.IncrementRejected("validation")
		h.logger.WarnContext(ctx, "check request rejected",
			"request_id", requestID,
			"check_id", req.ID,
			"error", err,
		)
		WriteValidationError(w, err)
		return
	}

	narrative := false
	if v := r.URL.Query().Get("narrative"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			WriteError(w, http.StatusBadRequest, CodeBadRequest, "narrative must be true or false")
			return
		}
		narrative = parsed
	}

	prop, proposal := req.PropertyContext(), req.ProposalRequest()

	var (
		result *model.ComplianceResult
		cached bool
	)
	if !narrative {
		result, cached = h.cache.Get(prop, proposal)
		if h.cache != nil {
			h.metrics.IncrementCacheLookup(cached)
		}
	}

	if !cached {
		checkStart := time.Now()
		if narrative {
			result = h.checker.CheckWithNarrative(ctx, prop, proposal)
		} else {
			result = h.checker.Check(prop, proposal)
			if err := h.cache.Put(prop, proposal, result); err != nil {
				h.logger.WarnContext(ctx, "cache write failed", "request_id", requestID, "error", err)
			}
		}
		h.metrics.ObserveCheck("api", string(result.Determination), time.Since(checkStart))
		if result.Narrative != nil {
			h.metrics.IncrementNarrative(narrativeStatus(result.Narrative))
		}
	}

	h.logger.InfoContext(ctx, "compliance checked",
		"request_id", requestID,
		"check_id", req.ID,
		"determination", result.Determination,
		"decided_by", result.DecidedBy.Kind,
		"confidence", result.Confidence.Level,
		"cached", cached,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	WriteJSON(w, http.StatusOK, CheckResponse{
		ID:        req.ID,
		RequestID: requestID,
		Cached:    cached,
		Result:    result,
	})
}

// HandleClasses handles GET /v1/classes.
func (h *Handler) HandleClasses(w http.ResponseWriter, r *http.Request) {
	cat := h.checker.Catalog()
	WriteJSON(w, http.StatusOK, map[string]any{
		"catalog_version": cat.Version(),
		"classes":         cat.Classes(),
	})
}

// HandleAreas handles GET /v1/areas.
func (h *Handler) HandleAreas(w http.ResponseWriter, r *http.Request) {
	cat := h.checker.Catalog()
	WriteJSON(w, http.StatusOK, map[string]any{
		"catalog_version": cat.Version(),
		"article4_areas":  cat.Article4Areas(),
	})
}

// HandleHealth handles GET /healthz.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":          "ok",
		"catalog_version": h.checker.Catalog().Version(),
	})
}

func narrativeStatus(n *model.Narrative) string {
	switch {
	case !n.Enabled:
		return "unavailable"
	case n.Text == "":
		return "failed"
	default:
		return "generated"
	}
}
