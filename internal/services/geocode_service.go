package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"placesmap/internal/config"
	"placesmap/internal/models/response_models"
	mem "placesmap/pkg/memcache"
	"placesmap/pkg/metrics"
	"placesmap/pkg/utils"
)

type GeocodeServiceInterface interface {
	Geocode(ctx context.Context, address string) (response_models.GeocodeResult, error)
}

// MapboxGeocoder forwards address lookups to the Mapbox geocoding API and caches hits.
type MapboxGeocoder struct {
	HTTP        *http.Client
	AccessToken string
	BaseURL     string
	Cache       mem.Store[response_models.GeocodeResult]
	TTL         time.Duration
}

func NewMapboxGeocoder(cfg config.MapboxConfig, cache mem.Store[response_models.GeocodeResult]) GeocodeServiceInterface {
	return &MapboxGeocoder{
		HTTP:        &http.Client{Timeout: cfg.HTTPTimeout},
		AccessToken: cfg.Token,
		BaseURL:     "https://api.mapbox.com",
		Cache:       cache,
		TTL:         cfg.GeocodeTTL,
	}
}

func (g *MapboxGeocoder) Geocode(ctx context.Context, address string) (response_models.GeocodeResult, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return response_models.GeocodeResult{}, fmt.Errorf("address is required: %w", utils.ErrValidation)
	}
	if g.AccessToken == "" {
		return response_models.GeocodeResult{}, utils.ErrGeocoderUnavailable
	}

	key := strings.ToLower(address)
	if v, ok := g.Cache.Get(key); ok {
		return v, nil
	}

	u := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json", g.BaseURL, url.PathEscape(address))
	q := url.Values{}
	q.Set("access_token", g.AccessToken)
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u+"?"+q.Encode(), nil)
	if err != nil {
		return response_models.GeocodeResult{}, err
	}
	resp, err := g.HTTP.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("mapbox-geocoding", "failure").Inc()
		return response_models.GeocodeResult{}, fmt.Errorf("mapbox geocoding http error: %v: %w", err, utils.ErrUpstream)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		metrics.UpstreamRequests.WithLabelValues("mapbox-geocoding", "failure").Inc()
		return response_models.GeocodeResult{}, fmt.Errorf("mapbox geocoding bad status %s: %w", resp.Status, utils.ErrUpstream)
	}
	metrics.UpstreamRequests.WithLabelValues("mapbox-geocoding", "success").Inc()

	var payload struct {
		Features []struct {
			Center    []float64 `json:"center"`
			PlaceName string    `json:"place_name"`
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return response_models.GeocodeResult{}, fmt.Errorf("mapbox decode: %v: %w", err, utils.ErrUpstream)
	}
	if len(payload.Features) == 0 || len(payload.Features[0].Center) < 2 {
		return response_models.GeocodeResult{}, utils.ErrAddressNotFound
	}

	f := payload.Features[0]
	result := response_models.GeocodeResult{
		Longitude:   f.Center[0],
		Latitude:    f.Center[1],
		FullAddress: f.PlaceName,
	}
	g.Cache.Set(key, result, g.TTL)
	return result, nil
}
