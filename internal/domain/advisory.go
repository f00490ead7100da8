package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Category is the Saffir-Simpson classification of the storm.
type Category string

const (
	CategoryTS   Category = "TS"
	CategoryCAT1 Category = "CAT1"
	CategoryCAT2 Category = "CAT2"
	CategoryCAT3 Category = "CAT3"
	CategoryCAT4 Category = "CAT4"
	CategoryCAT5 Category = "CAT5"
)

// evacuationSpeedKMH is the assumed average road speed while evacuating.
// Stronger storms mean heavier traffic and worse conditions.
var evacuationSpeedKMH = map[Category]float64{
	CategoryTS:   45,
	CategoryCAT1: 40,
	CategoryCAT2: 35,
	CategoryCAT3: 30,
	CategoryCAT4: 25,
	CategoryCAT5: 20,
}

// ParseCategory normalizes and validates a category label.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := evacuationSpeedKMH[c]; !ok {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// EvacuationSpeedKMH returns the ETA speed assumption for the category.
func (c Category) EvacuationSpeedKMH() float64 {
	if v, ok := evacuationSpeedKMH[c]; ok {
		return v
	}
	return evacuationSpeedKMH[CategoryTS]
}

// Advisory is the active storm advisory.
type Advisory struct {
	Center   Point    `json:"center"`
	RadiusKM float64  `json:"radius_km"`
	Category Category `json:"category"`
	IssuedAt string   `json:"issued_at,omitempty"`
	Active   bool     `json:"active"`
}

// Area returns the advisory circle as a closed [lon, lat] ring.
func (a Advisory) Area() [][2]float64 {
	return CirclePolygon(a.Center, a.RadiusKM)
}

// Freshness classifies the advisory's issuance time against the package clock.
func (a Advisory) Freshness() Freshness {
	return FreshnessOf(a.IssuedAt)
}

// ErrMalformedAdvisory is matched by every AdvisoryError.
var ErrMalformedAdvisory = errors.New("malformed advisory")

// AdvisoryError describes why an advisory document was rejected.
type AdvisoryError struct {
	Field  string
	Reason string
}

func (e *AdvisoryError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("advisory: %s", e.Reason)
	}
	return fmt.Sprintf("advisory: %s: %s", e.Field, e.Reason)
}

func (e *AdvisoryError) Unwrap() error { return ErrMalformedAdvisory }

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseAdvisory decodes and validates an advisory document.
func ParseAdvisory(data []byte) (Advisory, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return Advisory{}, &AdvisoryError{Reason: "not a JSON object: " + err.Error()}
	}

	centerRaw, ok := doc["center"]
	if !ok {
		return Advisory{}, &AdvisoryError{Field: "center", Reason: "missing"}
	}
	var center map[string]json.RawMessage
	if err := json.Unmarshal(centerRaw, &center); err != nil {
		return Advisory{}, &AdvisoryError{Field: "center", Reason: "must be an object with lat and lon"}
	}
	lat, err := requiredFloat(center, "lat", "center.lat")
	if err != nil {
		return Advisory{}, err
	}
	lon, err := requiredFloat(center, "lon", "center.lon")
	if err != nil {
		return Advisory{}, err
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Advisory{}, &AdvisoryError{Field: "center", Reason: "coordinates out of range"}
	}

	radius, err := requiredFloat(doc, "radius_km", "radius_km")
	if err != nil {
		return Advisory{}, err
	}

	catRaw, ok := doc["category"]
	if !ok {
		return Advisory{}, &AdvisoryError{Field: "category", Reason: "missing"}
	}
	var catStr string
	if err := json.Unmarshal(catRaw, &catStr); err != nil {
		return Advisory{}, &AdvisoryError{Field: "category", Reason: "must be a string"}
	}
	category, err := ParseCategory(catStr)
	if err != nil {
		return Advisory{}, &AdvisoryError{Field: "category", Reason: err.Error()}
	}

	activeRaw, ok := doc["active"]
	if !ok {
		return Advisory{}, &AdvisoryError{Field: "active", Reason: "missing"}
	}
	active, err := looseBool(activeRaw)
	if err != nil {
		return Advisory{}, &AdvisoryError{Field: "active", Reason: err.Error()}
	}

	if active && radius <= 0 {
		return Advisory{}, &AdvisoryError{Field: "radius_km", Reason: "must be positive for an active advisory"}
	}
	if radius < 0 {
		return Advisory{}, &AdvisoryError{Field: "radius_km", Reason: "must not be negative"}
	}

	var issuedAt string
	if raw, ok := doc["issued_at"]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &issuedAt); err != nil {
			return Advisory{}, &AdvisoryError{Field: "issued_at", Reason: "must be a string"}
		}
	}

	return Advisory{
		Center:   Point{Lat: lat, Lon: lon},
		RadiusKM: radius,
		Category: category,
		IssuedAt: strings.TrimSpace(issuedAt),
		Active:   active,
	}, nil
}

func requiredFloat(obj map[string]json.RawMessage, key, field string) (float64, error) {
	raw, ok := obj[key]
	if !ok {
		return 0, &AdvisoryError{Field: field, Reason: "missing"}
	}
	v, err := looseFloat(raw)
	if err != nil {
		return 0, &AdvisoryError{Field: field, Reason: err.Error()}
	}
	return v, nil
}

// looseFloat accepts a JSON number or a string holding one.
func looseFloat(raw json.RawMessage) (float64, error) {
	if isNull(raw) {
		return 0, errors.New("must be a number, got null")
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, errors.New("must be a number")
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return n, nil
}

// looseBool accepts booleans, 0/1, and common yes/no words.
func looseBool(raw json.RawMessage) (bool, error) {
	if isNull(raw) {
		return false, errors.New("must be a boolean, got null")
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		switch n {
		case 1:
			return true, nil
		case 0:
			return false, nil
		}
		return false, fmt.Errorf("not a boolean: %v", n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false, errors.New("must be a boolean")
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "on":
		return true, nil
	case "false", "0", "no", "n", "off":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}

// isNull reports whether raw is a JSON null, which json.Unmarshal would
// otherwise decode into the zero value.
func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
