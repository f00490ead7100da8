// Package ziptable resolves ZIP codes from a local centroid table.
package ziptable

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/ernestobalbinse/HurriAid/internal/domain"
	"github.com/ernestobalbinse/HurriAid/internal/observability"
)

// FileName is the centroid table file name inside the data directory.
const FileName = "zip_centroids.csv"

// Table implements domain.ZIPResolver from an in-memory ZIP table.
type Table struct {
	entries map[string]domain.ZIPLocation
	metrics *observability.Metrics
}

// Load reads a centroid table from path. The file is CSV with a header row
// and the columns zip,lat,lon and optionally state,place.
func Load(path string, metrics *observability.Metrics) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open zip table: %w", err)
	}
	defer f.Close()

	entries, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("read zip table %s: %w", path, err)
	}
	return &Table{entries: entries, metrics: metrics}, nil
}

// Len reports the number of ZIP codes in the table.
func (t *Table) Len() int { return len(t.entries) }

// Locations returns every entry ordered by ZIP code.
func (t *Table) Locations() []domain.ZIPLocation {
	locs := make([]domain.ZIPLocation, 0, len(t.entries))
	for _, loc := range t.entries {
		locs = append(locs, loc)
	}
	slices.SortFunc(locs, func(a, b domain.ZIPLocation) int { return strings.Compare(a.ZIP, b.ZIP) })
	return locs
}

func (t *Table) ResolveZIP(_ context.Context, zip string) (domain.ZIPLocation, error) {
	loc, ok := t.entries[zip]
	if !ok {
		t.metrics.ZIPLookups.WithLabelValues("table", "not_found").Inc()
		return domain.ZIPLocation{}, domain.ErrZIPNotFound
	}
	t.metrics.ZIPLookups.WithLabelValues("table", "success").Inc()
	return loc, nil
}

func parse(r io.Reader) (map[string]domain.ZIPLocation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty file")
	}
	if err != nil {
		return nil, err
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, required := range []string{"zip", "lat", "lon"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}

	entries := make(map[string]domain.ZIPLocation)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}

		zip, err := domain.NormalizeZIP(field(rec, cols, "zip"))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid zip %q", line, field(rec, cols, "zip"))
		}
		lat, err := strconv.ParseFloat(field(rec, cols, "lat"), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid lat: %w", line, err)
		}
		lon, err := strconv.ParseFloat(field(rec, cols, "lon"), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid lon: %w", line, err)
		}
		entries[zip] = domain.ZIPLocation{
			ZIP:    zip,
			Point:  domain.Point{Lat: lat, Lon: lon},
			State:  field(rec, cols, "state"),
			Place:  field(rec, cols, "place"),
			Source: "table",
		}
	}
}

func field(rec []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
