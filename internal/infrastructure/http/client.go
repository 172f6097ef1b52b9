package http

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds upstream calls when no explicit timeout is configured.
const DefaultTimeout = 10 * time.Second

// ClientConfig holds configuration for HTTP clients.
type ClientConfig struct {
	Timeout       time.Duration
	Transport     http.RoundTripper
	CheckRedirect func(req *http.Request, via []*http.Request) error
}

// NewClient creates an HTTP client for upstream lookups.
// A nil config or a zero timeout falls back to DefaultTimeout.
func NewClient(config *ClientConfig) *http.Client {
	if config == nil {
		config = &ClientConfig{}
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := &http.Client{Timeout: timeout}
	if config.Transport != nil {
		client.Transport = config.Transport
	}
	if config.CheckRedirect != nil {
		client.CheckRedirect = config.CheckRedirect
	}
	return client
}
