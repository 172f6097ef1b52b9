package postal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"3tcapital/ms_consulta_ibge/internal/core/postal"
	"3tcapital/ms_consulta_ibge/internal/infrastructure/cache"
)

// DefaultLookupTimeout bounds a single upstream CEP lookup.
const DefaultLookupTimeout = 3 * time.Second

// Resolver turns a raw CEP into a city and UF, caching successful lookups.
type Resolver struct {
	service postal.Service
	cache   *cache.PostalCache
	log     *slog.Logger
	timeout time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewResolver creates a resolver. A non-positive timeout uses
// DefaultLookupTimeout.
func NewResolver(service postal.Service, postalCache *cache.PostalCache, log *slog.Logger, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &Resolver{
		service: service,
		cache:   postalCache,
		log:     log,
		timeout: timeout,
	}
}

// Resolve normalizes rawPostalCode and returns its address.
//
// Inputs without exactly 8 digits fail with postal.ErrInvalidPostalCode and
// never reach the upstream service. Every upstream failure, including
// timeouts and incomplete answers, is reported as postal.ErrNotFound and is
// not cached, so the next call asks again.
func (r *Resolver) Resolve(ctx context.Context, rawPostalCode string) (postal.Address, error) {
	code, err := postal.Normalize(rawPostalCode)
	if err != nil {
		return postal.Address{}, err
	}

	if addr, ok := r.cache.Get(code); ok {
		r.hits.Add(1)
		return addr, nil
	}
	r.misses.Add(1)

	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	addr, err := r.service.LookupPostalCode(lookupCtx, code)
	if err != nil {
		r.log.DebugContext(ctx, "Postal code lookup failed", "cep", code, "error", err)
		if errors.Is(err, postal.ErrNotFound) {
			return postal.Address{}, err
		}
		return postal.Address{}, fmt.Errorf("%w: %v", postal.ErrNotFound, err)
	}
	if addr == nil || addr.City == "" || addr.StateCode == "" {
		return postal.Address{}, postal.ErrNotFound
	}

	result := postal.Address{PostalCode: code, City: addr.City, StateCode: addr.StateCode}
	r.cache.Set(code, result)
	return result, nil
}

// CacheStats returns cache hits and misses since start.
func (r *Resolver) CacheStats() (hits, misses int64) {
	return r.hits.Load(), r.misses.Load()
}

// CacheSize returns the number of cached CEPs.
func (r *Resolver) CacheSize() int {
	return r.cache.Len()
}
