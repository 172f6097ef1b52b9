package health

import "time"

const (
	StatusUp       = "UP"
	StatusDegraded = "DEGRADED"
)

// Status captures the state of the service at a moment in time.
type Status struct {
	Service      string             `json:"service"`
	Version      string             `json:"version"`
	Environment  string             `json:"environment"`
	Status       string             `json:"status"`
	StartedAt    time.Time          `json:"startedAt"`
	Uptime       string             `json:"uptime"`
	UptimeSecs   int64              `json:"uptimeSeconds"`
	Dependencies []string           `json:"dependencies,omitempty"`
	Catalog      *CatalogStatus     `json:"catalog,omitempty"`
	PostalCache  *PostalCacheStatus `json:"postalCache,omitempty"`
}

// CatalogStatus reports the municipality catalog load state.
type CatalogStatus struct {
	Loaded         bool      `json:"loaded"`
	Municipalities int       `json:"municipalities"`
	Names          int       `json:"names"`
	LoadedAt       time.Time `json:"loadedAt,omitzero"`
	LoadAttempts   int64     `json:"loadAttempts"`
	LoadFailures   int64     `json:"loadFailures"`
}

// PostalCacheStatus reports the CEP cache usage.
type PostalCacheStatus struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}
