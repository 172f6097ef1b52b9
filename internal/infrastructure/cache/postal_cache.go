package cache

import (
	"sync"

	"3tcapital/ms_consulta_ibge/internal/core/postal"
)

// PostalCache provides thread-safe caching of successful CEP lookups.
// Entries live for the lifetime of the process and are never evicted.
type PostalCache struct {
	mu      sync.RWMutex
	entries map[string]postal.Address
}

// NewPostalCache creates an empty postal cache.
func NewPostalCache() *PostalCache {
	return &PostalCache{entries: make(map[string]postal.Address)}
}

// Get returns the cached address for a normalized CEP.
func (c *PostalCache) Get(postalCode string) (postal.Address, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	addr, ok := c.entries[postalCode]
	return addr, ok
}

// Set stores an address under its normalized CEP.
func (c *PostalCache) Set(postalCode string, addr postal.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[postalCode] = addr
}

// Len returns the number of cached CEPs.
func (c *PostalCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
