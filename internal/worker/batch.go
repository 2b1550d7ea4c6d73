package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/permitcheck/internal/cache"
	"github.com/ppiankov/permitcheck/internal/metrics"
	"github.com/ppiankov/permitcheck/internal/model"
	"github.com/ppiankov/permitcheck/internal/validate"
)

// Checker runs a single compliance check
type Checker interface {
	Check(prop model.PropertyContext, req model.ProposalRequest) *model.ComplianceResult
}

// CheckJob checks one batch entry
type CheckJob struct {
	Index   int
	Request validate.CheckRequest
	Checker Checker
	Cache   *cache.ResultCache
	Metrics *metrics.Metrics
}

// Execute validates the entry, serves it from the cache when possible, and runs the check otherwise
func (j *CheckJob) Execute(ctx context.Context) Result {
	out := &CheckOutcome{Index: j.Index, ID: j.Request.ID}

	if err := ctx.Err(); err != nil {
		out.Error = err
		return out
	}

	req := j.Request
	if err := req.Validate(); err != nil {
		j.Metrics.IncrementRejected("validation")
		out.Error = err
		return out
	}
	prop, proposal := req.PropertyContext(), req.ProposalRequest()

	if cached, ok := j.Cache.Get(prop, proposal); ok {
		j.Metrics.IncrementCacheLookup(true)
		out.Result = cached
		out.Cached = true
		return out
	}
	if j.Cache != nil {
		j.Metrics.IncrementCacheLookup(false)
	}

	start := time.Now()
	out.Result = j.Checker.Check(prop, proposal)
	j.Metrics.ObserveCheck("batch", string(out.Result.Determination), time.Since(start))

	if err := j.Cache.Put(prop, proposal, out.Result); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cache write failed for %s: %v\n", j.Request.ID, err)
	}
	return out
}

// CheckOutcome is the result of one batch entry
type CheckOutcome struct {
	Index  int                     `json:"-"`
	ID     string                  `json:"id"`
	Result *model.ComplianceResult `json:"result,omitempty"`
	Cached bool                    `json:"cached,omitempty"`
	Error  error                   `json:"-"`
}

// GetError returns the entry's error
func (o *CheckOutcome) GetError() error {
	return o.Error
}

// MarshalJSON includes the error message, which error values cannot carry themselves
func (o *CheckOutcome) MarshalJSON() ([]byte, error) {
	type alias CheckOutcome
	aux := struct {
		*alias
		Error string `json:"error,omitempty"`
	}{alias: (*alias)(o)}
	if o.Error != nil {
		aux.Error = o.Error.Error()
	}
	return json.Marshal(aux)
}

// BatchProcessor checks many requests concurrently
type BatchProcessor struct {
	checker     Checker
	concurrency int
	cache       *cache.ResultCache
	metrics     *metrics.Metrics
}

// BatchOption configures a batch processor
type BatchOption func(*BatchProcessor)

// WithCache memoises results across entries and runs
func WithCache(c *cache.ResultCache) BatchOption {
	return func(b *BatchProcessor) {
		b.cache = c
	}
}

// WithMetrics records outcomes
func WithMetrics(m *metrics.Metrics) BatchOption {
	return func(b *BatchProcessor) {
		b.metrics = m
	}
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(checker Checker, concurrency int, opts ...BatchOption) *BatchProcessor {
	b := &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ProcessRequests checks every request and returns outcomes in input order.
// Entries the context cancelled before they ran carry the context error.
func (b *BatchProcessor) ProcessRequests(ctx context.Context, requests []validate.CheckRequest) []*CheckOutcome {
	if len(requests) == 0 {
		return []*CheckOutcome{}
	}

	jobs := make([]Job, len(requests))
	for i, req := range requests {
		jobs[i] = &CheckJob{
			Index:   i,
			Request: req,
			Checker: b.checker,
			Cache:   b.cache,
			Metrics: b.metrics,
		}
	}

	outcomes := make([]*CheckOutcome, len(requests))
	for _, r := range Run(ctx, b.concurrency, jobs) {
		o := r.(*CheckOutcome)
		outcomes[o.Index] = o
	}

	for i, o := range outcomes {
		if o == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			outcomes[i] = &CheckOutcome{Index: i, ID: requests[i].ID, Error: err}
		}
	}
	return outcomes
}

// ProcessFile reads a batch file and checks every entry
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*CheckOutcome, error) {
	requests, err := ReadRequestsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read requests: %w", err)
	}

	return b.ProcessRequests(ctx, requests), nil
}

// ReadRequestsFromFile reads a JSON array or YAML list of check requests.
// Entries without an id are numbered by position; duplicate ids are an error.
func ReadRequestsFromFile(filePath string) ([]validate.CheckRequest, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	var requests []validate.CheckRequest
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".json":
		err = json.Unmarshal(data, &requests)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &requests)
	default:
		return nil, fmt.Errorf("unsupported batch file extension %q (want .json, .yaml or .yml)", filepath.Ext(filePath))
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(filePath), err)
	}

	seen := make(map[string]bool, len(requests))
	for i := range requests {
		if requests[i].ID == "" {
			requests[i].ID = fmt.Sprintf("entry-%d", i+1)
		}
		if seen[requests[i].ID] {
			return nil, fmt.Errorf("duplicate request id %q", requests[i].ID)
		}
		seen[requests[i].ID] = true
	}

	return requests, nil
}

// Summary counts outcomes by determination
type Summary struct {
	Total   int                         `json:"total"`
	Failed  int                         `json:"failed"`
	Cached  int                         `json:"cached"`
	ByKind  map[model.Determination]int `json:"by_determination"`
	Elapsed time.Duration               `json:"-"`
}

// Summarize counts the outcomes
func Summarize(outcomes []*CheckOutcome) Summary {
	s := Summary{Total: len(outcomes), ByKind: make(map[model.Determination]int)}
	for _, o := range outcomes {
		switch {
		case o.Error != nil:
			s.Failed++
		default:
			s.ByKind[o.Result.Determination]++
			if o.Cached {
				s.Cached++
			}
		}
	}
	return s
}

// Determinations returns the determinations present in the summary, sorted
func (s Summary) Determinations() []model.Determination {
	out := make([]model.Determination, 0, len(s.ByKind))
	for d := range s.ByKind {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
