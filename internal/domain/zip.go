package domain

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrInvalidZIP is returned for input that is not a 5-digit ZIP code.
	ErrInvalidZIP = errors.New("please enter a 5-digit U.S. ZIP code (e.g., 33101)")

	// ErrZIPNotFound is returned when no resolver knows the ZIP code.
	ErrZIPNotFound = errors.New("ZIP code not found")
)

// ZIPLocation is a ZIP code resolved to a representative point.
type ZIPLocation struct {
	ZIP    string `json:"zip"`
	Point  Point  `json:"point"`
	Place  string `json:"place,omitempty"`
	State  string `json:"state,omitempty"`
	Source string `json:"source"` // "table" or "mapbox"
}

// ZIPResolver maps a validated ZIP code to coordinates.
type ZIPResolver interface {
	// ResolveZIP returns ErrZIPNotFound when the code is unknown.
	ResolveZIP(ctx context.Context, zip string) (ZIPLocation, error)
}

// NormalizeZIP trims the input and checks it is exactly five ASCII digits.
func NormalizeZIP(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) != 5 {
		return "", ErrInvalidZIP
	}
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return "", ErrInvalidZIP
		}
	}
	return s, nil
}

// ChainResolver tries each resolver in order, moving on only when the
// current one reports ErrZIPNotFound.
type ChainResolver []ZIPResolver

func (c ChainResolver) ResolveZIP(ctx context.Context, zip string) (ZIPLocation, error) {
	for _, r := range c {
		loc, err := r.ResolveZIP(ctx, zip)
		if errors.Is(err, ErrZIPNotFound) {
			continue
		}
		return loc, err
	}
	return ZIPLocation{}, ErrZIPNotFound
}
