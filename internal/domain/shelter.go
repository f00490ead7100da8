package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Shelter is an emergency shelter with its current open state.
type Shelter struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Open bool    `json:"open"`
}

// Point returns the shelter location.
func (s Shelter) Point() Point {
	return Point{Lat: s.Lat, Lon: s.Lon}
}

// ErrMalformedShelters is matched by every ShelterError.
var ErrMalformedShelters = errors.New("malformed shelter list")

// ShelterError describes why a shelter document was rejected. Index is -1
// when the problem is with the document as a whole.
type ShelterError struct {
	Index  int
	Reason string
}

func (e *ShelterError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("shelters: %s", e.Reason)
	}
	return fmt.Sprintf("shelters[%d]: %s", e.Index, e.Reason)
}

func (e *ShelterError) Unwrap() error { return ErrMalformedShelters }

// ParseShelters decodes a shelter document. The document is either a JSON
// array of shelters or an object with a "shelters" array.
func ParseShelters(data []byte) ([]Shelter, error) {
	data = bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))

	var entries []map[string]json.RawMessage
	switch {
	case len(data) > 0 && data[0] == '[':
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, &ShelterError{Index: -1, Reason: "invalid JSON array: " + err.Error()}
		}
	case len(data) > 0 && data[0] == '{':
		var doc struct {
			Shelters []map[string]json.RawMessage `json:"shelters"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, &ShelterError{Index: -1, Reason: "invalid JSON object: " + err.Error()}
		}
		if doc.Shelters == nil {
			return nil, &ShelterError{Index: -1, Reason: `object has no "shelters" array`}
		}
		entries = doc.Shelters
	default:
		return nil, &ShelterError{Index: -1, Reason: "expected a JSON array or object"}
	}

	shelters := make([]Shelter, 0, len(entries))
	for i, entry := range entries {
		s, err := parseShelter(entry)
		if err != nil {
			return nil, &ShelterError{Index: i, Reason: err.Error()}
		}
		shelters = append(shelters, s)
	}
	return shelters, nil
}

func parseShelter(entry map[string]json.RawMessage) (Shelter, error) {
	var name string
	if raw, ok := entry["name"]; ok {
		if err := json.Unmarshal(raw, &name); err != nil {
			return Shelter{}, errors.New("name must be a string")
		}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Shelter{}, errors.New("name is required")
	}

	var coords [2]float64
	for i, key := range []string{"lat", "lon"} {
		raw, ok := entry[key]
		if !ok {
			return Shelter{}, fmt.Errorf("%s is required", key)
		}
		v, err := looseFloat(raw)
		if err != nil {
			return Shelter{}, fmt.Errorf("%s %w", key, err)
		}
		coords[i] = v
	}

	return Shelter{Name: name, Lat: coords[0], Lon: coords[1], Open: shelterOpen(entry)}, nil
}

// shelterOpen reports true when "open" or "is_open" is truthy or "status" is
// "open". Missing or unreadable values mean closed.
func shelterOpen(entry map[string]json.RawMessage) bool {
	for _, key := range []string{"open", "is_open"} {
		if raw, ok := entry[key]; ok {
			if open, err := looseBool(raw); err == nil && open {
				return true
			}
		}
	}
	if raw, ok := entry["status"]; ok {
		var status string
		if err := json.Unmarshal(raw, &status); err == nil {
			return strings.EqualFold(strings.TrimSpace(status), "open")
		}
	}
	return false
}

// OpenShelters returns only the shelters currently accepting people.
func OpenShelters(shelters []Shelter) []Shelter {
	open := make([]Shelter, 0, len(shelters))
	for _, s := range shelters {
		if s.Open {
			open = append(open, s)
		}
	}
	return open
}
