package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewClient_Timeouts(t *testing.T) {
	tests := []struct {
		name     string
		config   *ClientConfig
		expected time.Duration
	}{
		{"nil config", nil, DefaultTimeout},
		{"zero timeout", &ClientConfig{}, DefaultTimeout},
		{"negative timeout", &ClientConfig{Timeout: -time.Second}, DefaultTimeout},
		{"viacep timeout", &ClientConfig{Timeout: 3 * time.Second}, 3 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewClient(tt.config).Timeout)
		})
	}
}

func TestNewClient_TransportAndRedirect(t *testing.T) {
	transport := &http.Transport{MaxConnsPerHost: 4}
	client := NewClient(&ClientConfig{
		Timeout:   time.Second,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	})

	assert.Same(t, transport, client.Transport)
	assert.NotNil(t, client.CheckRedirect)

	plain := NewClient(nil)
	assert.Nil(t, plain.Transport, "nil transport falls back to http.DefaultTransport")
	assert.Nil(t, plain.CheckRedirect)
}
