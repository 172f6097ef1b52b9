package health

import (
	"context"
	"time"

	"3tcapital/ms_consulta_ibge/internal/application/catalog"
	corehealth "3tcapital/ms_consulta_ibge/internal/core/health"
)

// Metadata contains immutable metadata about the running service.
type Metadata struct {
	Service      string
	Version      string
	Environment  string
	Dependencies []string
}

// CatalogReporter exposes the municipality catalog state.
type CatalogReporter interface {
	Stats() catalog.Stats
}

// PostalCacheReporter exposes the CEP cache usage.
type PostalCacheReporter interface {
	CacheSize() int
	CacheStats() (hits, misses int64)
}

// Service exposes health-check use cases to adapters.
type Service struct {
	meta        Metadata
	startedAt   time.Time
	catalog     CatalogReporter
	postalCache PostalCacheReporter
}

// NewService creates the health service. Either reporter may be nil.
func NewService(meta Metadata, catalog CatalogReporter, postalCache PostalCacheReporter) *Service {
	return &Service{
		meta:        meta,
		startedAt:   time.Now().UTC(),
		catalog:     catalog,
		postalCache: postalCache,
	}
}

// Status returns the current availability snapshot.
//
// The service is DEGRADED while the catalog has failed to load and has not
// yet succeeded; it still answers CEP lookups in that state.
func (s *Service) Status(_ context.Context) corehealth.Status {
	uptime := time.Since(s.startedAt)
	status := corehealth.Status{
		Service:      s.meta.Service,
		Version:      s.meta.Version,
		Environment:  s.meta.Environment,
		Status:       corehealth.StatusUp,
		StartedAt:    s.startedAt,
		Uptime:       uptime.String(),
		UptimeSecs:   int64(uptime.Seconds()),
		Dependencies: s.meta.Dependencies,
	}

	if s.catalog != nil {
		stats := s.catalog.Stats()
		status.Catalog = &corehealth.CatalogStatus{
			Loaded:         stats.Loaded,
			Municipalities: stats.Municipalities,
			Names:          stats.Names,
			LoadedAt:       stats.LoadedAt,
			LoadAttempts:   stats.LoadAttempts,
			LoadFailures:   stats.LoadFailures,
		}
		if !stats.Loaded && stats.LoadFailures > 0 {
			status.Status = corehealth.StatusDegraded
		}
	}

	if s.postalCache != nil {
		hits, misses := s.postalCache.CacheStats()
		status.PostalCache = &corehealth.PostalCacheStatus{
			Entries: s.postalCache.CacheSize(),
			Hits:    hits,
			Misses:  misses,
		}
	}

	return status
}
