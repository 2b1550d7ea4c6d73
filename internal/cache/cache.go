package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ppiankov/permitcheck/internal/model"
)

// Cache defines the interface for byte caches
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CheckKey derives the cache key for one check. The catalog version is part of
// the key, so merging new reference data never serves a stale determination.
func CheckKey(catalogVersion string, prop model.PropertyContext, req model.ProposalRequest) (string, error) {
	data, err := json.Marshal(struct {
		Version  string                `json:"v"`
		Property model.PropertyContext `json:"p"`
		Proposal model.ProposalRequest `json:"r"`
	}{catalogVersion, prop, req})
	if err != nil {
		return "", fmt.Errorf("marshal cache key: %w", err)
	}
	hash := sha256.Sum256(data)
	return "check-v1-" + hex.EncodeToString(hash[:]), nil
}

// ResultCache memoises compliance results over a byte cache
type ResultCache struct {
	store   Cache
	version string
	ttl     time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewResultCache wraps store for results produced by the given catalog version
func NewResultCache(store Cache, catalogVersion string, ttl time.Duration) *ResultCache {
	return &ResultCache{store: store, version: catalogVersion, ttl: ttl}
}

// Get returns a cached result. A nil ResultCache always misses.
func (c *ResultCache) Get(prop model.PropertyContext, req model.ProposalRequest) (*model.ComplianceResult, bool) {
	if c == nil {
		return nil, false
	}
	key, err := CheckKey(c.version, prop, req)
	if err != nil {
		return nil, false
	}
	data, ok := c.store.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	var result model.ComplianceResult
	if err := json.Unmarshal(data, &result); err != nil {
		// Corrupt entry: drop it and recompute
		_ = c.store.Delete(key)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return &result, true
}

// Put stores a result. The narrative is not cached; it is regenerated on demand.
func (c *ResultCache) Put(prop model.PropertyContext, req model.ProposalRequest, result *model.ComplianceResult) error {
	if c == nil || result == nil {
		return nil
	}
	key, err := CheckKey(c.version, prop, req)
	if err != nil {
		return err
	}
	stored := *result
	stored.Narrative = nil
	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return c.store.Set(key, data, c.ttl)
}

// Stats returns hit and miss counts
func (c *ResultCache) Stats() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	return c.hits.Load(), c.misses.Load()
}
