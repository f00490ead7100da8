package domain

import (
	"fmt"
	"strings"
	"time"
)

// FreshnessStatus classifies how recent an advisory is.
type FreshnessStatus string

const (
	FreshnessFresh   FreshnessStatus = "FRESH"
	FreshnessStale   FreshnessStatus = "STALE"
	FreshnessUnknown FreshnessStatus = "UNKNOWN"
)

const (
	freshWindow      = 30 * time.Minute
	minuteDetailSpan = 180 * time.Minute
)

// Freshness is the classified age of an advisory timestamp.
type Freshness struct {
	Status FreshnessStatus `json:"status"`
	Detail string          `json:"detail"`
}

// FreshnessOf classifies an RFC 3339 timestamp relative to the package clock.
// A trailing "Z" and timestamps without a zone (read as UTC) are accepted.
func FreshnessOf(issuedAt string) Freshness {
	issuedAt = strings.TrimSpace(issuedAt)
	if issuedAt == "" {
		return Freshness{Status: FreshnessUnknown, Detail: "No timestamp"}
	}

	ts, ok := parseTimestamp(issuedAt)
	if !ok {
		return Freshness{Status: FreshnessUnknown, Detail: "Unparseable timestamp"}
	}

	age := max(clock.Now().Sub(ts), 0)
	minutes := int(age / time.Minute)
	switch {
	case age <= freshWindow:
		return Freshness{Status: FreshnessFresh, Detail: fmt.Sprintf("%d min old", minutes)}
	case age <= minuteDetailSpan:
		return Freshness{Status: FreshnessStale, Detail: fmt.Sprintf("%d min old", minutes)}
	default:
		return Freshness{Status: FreshnessStale, Detail: fmt.Sprintf("%d h old", int(age/time.Hour))}
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
