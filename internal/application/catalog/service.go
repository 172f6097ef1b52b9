package catalog

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"3tcapital/ms_consulta_ibge/internal/core/municipality"
	"3tcapital/ms_consulta_ibge/internal/core/text"
)

// DefaultLoadTimeout bounds a single catalog download.
const DefaultLoadTimeout = 10 * time.Second

// Stats is a point-in-time view of the catalog for health reporting.
type Stats struct {
	Loaded         bool
	Municipalities int
	Names          int
	LoadedAt       time.Time
	LoadAttempts   int64
	LoadFailures   int64
}

// Service owns the in-memory municipality catalog and its name index.
//
// The catalog is fetched on first use. A failed or empty download leaves the
// index empty, and every later call retries until a non-empty snapshot is
// installed; after that the snapshot lives for the rest of the process.
// Concurrent first callers share a single download.
type Service struct {
	source  municipality.Source
	log     *slog.Logger
	timeout time.Duration

	mu       sync.RWMutex
	snapshot []municipality.Municipality
	index    map[string][]municipality.Municipality
	loadedAt time.Time

	loads    singleflight.Group
	attempts atomic.Int64
	failures atomic.Int64
}

// NewService creates a catalog backed by source. A non-positive timeout
// uses DefaultLoadTimeout.
func NewService(source municipality.Source, log *slog.Logger, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	return &Service{
		source:  source,
		log:     log,
		timeout: timeout,
		index:   map[string][]municipality.Municipality{},
	}
}

// EnsureLoaded downloads the catalog unless a non-empty index is installed.
//
// The download is detached from ctx so a caller that gives up does not abort
// it for the others waiting on it; ctx only bounds how long this caller waits.
func (s *Service) EnsureLoaded(ctx context.Context) error {
	if s.loaded() {
		return nil
	}

	ch := s.loads.DoChan("catalog", func() (any, error) {
		if s.loaded() {
			return nil, nil
		}
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return nil, s.load(loadCtx)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Lookup returns a copy of the municipalities whose normalized name equals
// normalizedName, in catalog order. The result is empty when nothing matches
// or the catalog could not be loaded.
func (s *Service) Lookup(ctx context.Context, normalizedName string) []municipality.Municipality {
	if err := s.EnsureLoaded(ctx); err != nil {
		s.log.DebugContext(ctx, "Catalog unavailable for lookup", "error", err, "nome", normalizedName)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.index[normalizedName])
}

// Stats reports the current catalog state.
func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Loaded:         len(s.index) > 0,
		Municipalities: len(s.snapshot),
		Names:          len(s.index),
		LoadedAt:       s.loadedAt,
		LoadAttempts:   s.attempts.Load(),
		LoadFailures:   s.failures.Load(),
	}
}

func (s *Service) loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index) > 0
}

// load fetches and installs a new snapshot. The index is built before the
// write lock is taken, so readers only ever see a complete snapshot or an
// empty one.
func (s *Service) load(ctx context.Context) error {
	s.attempts.Add(1)
	start := time.Now()

	municipalities, err := s.source.FetchMunicipalities(ctx)
	if err != nil {
		s.failures.Add(1)
		s.install(nil, map[string][]municipality.Municipality{}, time.Time{})
		s.log.WarnContext(ctx, "Failed to load municipality catalog", "error", err, "attempt", s.attempts.Load())
		return err
	}

	index := buildIndex(municipalities)
	if len(index) == 0 {
		s.failures.Add(1)
		s.install(nil, index, time.Time{})
		s.log.WarnContext(ctx, "Municipality catalog is empty", "attempt", s.attempts.Load())
		return municipality.ErrCatalogUnavailable
	}

	s.install(municipalities, index, time.Now().UTC())
	s.log.InfoContext(ctx, "Municipality catalog loaded",
		"municipios", len(municipalities),
		"nomes", len(index),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (s *Service) install(snapshot []municipality.Municipality, index map[string][]municipality.Municipality, loadedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
	s.index = index
	s.loadedAt = loadedAt
}

// buildIndex groups municipalities by normalized name, keeping catalog order
// within each key.
func buildIndex(municipalities []municipality.Municipality) map[string][]municipality.Municipality {
	index := make(map[string][]municipality.Municipality, len(municipalities))
	for _, m := range municipalities {
		key := text.Normalize(m.Name)
		index[key] = append(index[key], m)
	}
	return index
}
