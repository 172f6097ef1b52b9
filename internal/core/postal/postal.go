package postal

import (
	"context"
	"errors"
	"strings"
)

// PostalCodeLength is the number of digits of a CEP.
const PostalCodeLength = 8

var (
	// ErrInvalidPostalCode is returned when a CEP does not have 8 digits.
	ErrInvalidPostalCode = errors.New("invalid postal code")
	// ErrNotFound is returned when the postal service has no usable address
	// for a CEP, including network, timeout and decoding failures.
	ErrNotFound = errors.New("postal code not found")
)

// Address is the city and UF a CEP belongs to.
type Address struct {
	PostalCode string
	City       string
	StateCode  string
}

// Service defines the contract for querying an upstream postal code service.
type Service interface {
	// LookupPostalCode queries a normalized 8-digit CEP.
	LookupPostalCode(ctx context.Context, postalCode string) (*Address, error)
}

// BatchEntry is the outcome for one CEP of a batch lookup.
// City and StateCode are empty when Err is set.
type BatchEntry struct {
	PostalCode string
	City       string
	StateCode  string
	Err        error
}

// Found reports whether the entry carries both a city and a UF.
func (e BatchEntry) Found() bool {
	return e.Err == nil && e.City != "" && e.StateCode != ""
}

// DigitsOnly strips every non-digit character from s.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Normalize returns the 8-digit form of a raw CEP such as "01310-930".
func Normalize(raw string) (string, error) {
	digits := DigitsOnly(raw)
	if len(digits) != PostalCodeLength {
		return "", ErrInvalidPostalCode
	}
	return digits, nil
}
