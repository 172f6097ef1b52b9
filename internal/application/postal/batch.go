package postal

import (
	"context"

	"golang.org/x/sync/errgroup"

	"3tcapital/ms_consulta_ibge/internal/core/postal"
)

// DefaultWorkers is the number of concurrent upstream lookups per batch.
const DefaultWorkers = 4

// AddressResolver resolves one raw CEP.
type AddressResolver interface {
	Resolve(ctx context.Context, rawPostalCode string) (postal.Address, error)
}

// BatchResolver resolves many CEPs with bounded concurrency.
type BatchResolver struct {
	resolver AddressResolver
	workers  int
}

// NewBatchResolver creates a batch resolver running at most workers lookups
// at a time. A non-positive value uses DefaultWorkers.
func NewBatchResolver(resolver AddressResolver, workers int) *BatchResolver {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &BatchResolver{resolver: resolver, workers: workers}
}

// ResolveAll returns one entry per input CEP, in input order. A failed
// lookup only marks its own entry.
func (b *BatchResolver) ResolveAll(ctx context.Context, postalCodes []string) []postal.BatchEntry {
	entries := make([]postal.BatchEntry, len(postalCodes))

	var g errgroup.Group
	g.SetLimit(b.workers)
	for i, code := range postalCodes {
		i, code := i, code
		g.Go(func() error {
			entry := postal.BatchEntry{PostalCode: code}
			addr, err := b.resolver.Resolve(ctx, code)
			if err != nil {
				entry.Err = err
			} else {
				entry.City = addr.City
				entry.StateCode = addr.StateCode
			}
			entries[i] = entry
			return nil
		})
	}
	_ = g.Wait()

	return entries
}
