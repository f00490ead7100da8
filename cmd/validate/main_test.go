package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	goodAdvisory = `{"center":{"lat":25.7,"lon":-80.3},"radius_km":120,"category":"CAT3","issued_at":"2025-09-01T11:50:00Z","active":true}`
	goodShelters = `[{"name":"North High","lat":25.9,"lon":-80.2,"open":true},{"name":"Civic Center","lat":25.78,"lon":-80.21,"open":false}]`
	goodTable    = "zip,lat,lon\n33101,25.7791,-80.1978\n32801,28.5421,-81.3790\n"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func TestRun_AllPass(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"sample_advisory.json": goodAdvisory,
		"shelters.json":        goodShelters,
		"zip_centroids.csv":    goodTable,
		"rumors.json":          `{"rules":[{"pattern":"drink seawater","verdict":"FALSE","note":"Seawater dehydrates you."}]}`,
	})
	var out bytes.Buffer

	code := run(dir, "2025-09-01T12:00:00Z", &out)

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "All validations passed.")
	assert.Contains(t, out.String(), "FRESH (10 min old)")
	assert.Contains(t, out.String(), "1 of 2 ZIP codes inside the advisory radius")
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name: "no open shelters",
			files: map[string]string{
				"sample_advisory.json": goodAdvisory,
				"shelters.json":        `[{"name":"Civic Center","lat":25.78,"lon":-80.21,"open":false}]`,
				"zip_centroids.csv":    goodTable,
			},
			want: "no open shelters",
		},
		{
			name: "duplicate shelter",
			files: map[string]string{
				"sample_advisory.json": goodAdvisory,
				"shelters.json":        `[{"name":"North High","lat":25.9,"lon":-80.2,"open":true},{"name":"north high","lat":25.9,"lon":-80.2,"open":true}]`,
				"zip_centroids.csv":    goodTable,
			},
			want: "duplicates shelter 0",
		},
		{
			name: "missing zip table",
			files: map[string]string{
				"sample_advisory.json": goodAdvisory,
				"shelters.json":        goodShelters,
			},
			want: "skipped: an earlier phase failed",
		},
		{
			name: "active advisory without timestamp",
			files: map[string]string{
				"sample_advisory.json": `{"center":{"lat":25.7,"lon":-80.3},"radius_km":120,"category":"CAT3","active":true}`,
				"shelters.json":        goodShelters,
				"zip_centroids.csv":    goodTable,
			},
			want: "no usable issued_at",
		},
		{
			name: "bad rumor rules",
			files: map[string]string{
				"sample_advisory.json": goodAdvisory,
				"shelters.json":        goodShelters,
				"zip_centroids.csv":    goodTable,
				"rumors.json":          `{"rules":[{"pattern":"taping windows","verdict":"MISLEADING"}]}`,
			},
			want: `pattern "taping windows" has no note`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			code := run(writeFiles(t, tt.files), "2025-09-01T12:00:00Z", &out)

			assert.Equal(t, 1, code)
			assert.Contains(t, out.String(), "Validation FAILED.")
			assert.Contains(t, out.String(), tt.want)
		})
	}
}

func TestRun_InvalidNow(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 2, run(t.TempDir(), "yesterday", &out))
	assert.Contains(t, out.String(), "invalid -now")
}
