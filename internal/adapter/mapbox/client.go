package mapbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ernestobalbinse/HurriAid/internal/domain"
	"github.com/ernestobalbinse/HurriAid/internal/observability"
)

// Client implements domain.ZIPResolver using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client.
func NewClient(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.mapbox.com/geocoding/v5/mapbox.places",
		metrics: metrics,
		logger:  logger,
	}
}

// ResolveZIP forward-geocodes a U.S. postcode to its centroid.
func (c *Client) ResolveZIP(ctx context.Context, zip string) (domain.ZIPLocation, error) {
	u := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(zip))
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {"postcode"},
		"country":      {"us"},
	}

	start := time.Now()
	loc, err := c.doRequest(ctx, u+"?"+params.Encode(), zip)
	c.metrics.MapboxAPI.WithLabelValues("postcode").Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		c.metrics.ZIPLookups.WithLabelValues("mapbox", "success").Inc()
	case errors.Is(err, domain.ErrZIPNotFound):
		c.metrics.ZIPLookups.WithLabelValues("mapbox", "not_found").Inc()
	default:
		c.metrics.ZIPLookups.WithLabelValues("mapbox", "error").Inc()
		c.logger.Warn("mapbox postcode lookup failed", "zip", zip, "error", err)
	}
	return loc, err
}

func (c *Client) doRequest(ctx context.Context, fullURL, zip string) (domain.ZIPLocation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.ZIPLocation{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ZIPLocation{}, fmt.Errorf("postcode geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.ZIPLocation{}, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return domain.ZIPLocation{}, fmt.Errorf("decode response: %w", err)
	}

	if len(mapboxResp.Features) == 0 || len(mapboxResp.Features[0].Center) != 2 {
		return domain.ZIPLocation{}, domain.ErrZIPNotFound
	}

	f := mapboxResp.Features[0]
	loc := domain.ZIPLocation{
		ZIP:    zip,
		Point:  domain.Point{Lat: f.Center[1], Lon: f.Center[0]},
		Source: "mapbox",
	}
	for _, ctxItem := range f.Context {
		switch ctxItem.kind() {
		case "place":
			loc.Place = ctxItem.Text
		case "region":
			loc.State = strings.TrimPrefix(ctxItem.ShortCode, "US-")
		}
	}
	return loc, nil
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64     `json:"center"` // [lon, lat]
	PlaceName string        `json:"place_name"`
	Text      string        `json:"text"`
	Context   []contextItem `json:"context"`
}

type contextItem struct {
	ID        string `json:"id"` // e.g. "place.123", "region.456"
	Text      string `json:"text"`
	ShortCode string `json:"short_code,omitempty"` // e.g. "US-FL"
}

func (c contextItem) kind() string {
	kind, _, _ := strings.Cut(c.ID, ".")
	return kind
}
