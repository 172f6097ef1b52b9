package testutil

import (
	"context"
	"sync/atomic"

	"3tcapital/ms_consulta_ibge/internal/core/municipality"
	"3tcapital/ms_consulta_ibge/internal/core/postal"
)

// MockMunicipalitySource is a mock implementation of municipality.Source for testing.
type MockMunicipalitySource struct {
	FetchMunicipalitiesFunc func(ctx context.Context) ([]municipality.Municipality, error)

	calls atomic.Int64
}

// FetchMunicipalities calls the mock function if set, otherwise returns an empty catalog.
func (m *MockMunicipalitySource) FetchMunicipalities(ctx context.Context) ([]municipality.Municipality, error) {
	m.calls.Add(1)
	if m.FetchMunicipalitiesFunc != nil {
		return m.FetchMunicipalitiesFunc(ctx)
	}
	return []municipality.Municipality{}, nil
}

// Calls returns how many times FetchMunicipalities was invoked.
func (m *MockMunicipalitySource) Calls() int64 {
	return m.calls.Load()
}

// MockPostalService is a mock implementation of postal.Service for testing.
type MockPostalService struct {
	LookupPostalCodeFunc func(ctx context.Context, postalCode string) (*postal.Address, error)

	calls atomic.Int64
}

// LookupPostalCode calls the mock function if set, otherwise reports the CEP as not found.
func (m *MockPostalService) LookupPostalCode(ctx context.Context, postalCode string) (*postal.Address, error) {
	m.calls.Add(1)
	if m.LookupPostalCodeFunc != nil {
		return m.LookupPostalCodeFunc(ctx, postalCode)
	}
	return nil, postal.ErrNotFound
}

// Calls returns how many times LookupPostalCode was invoked.
func (m *MockPostalService) Calls() int64 {
	return m.calls.Load()
}

var (
	_ municipality.Source = (*MockMunicipalitySource)(nil)
	_ postal.Service      = (*MockPostalService)(nil)
)
