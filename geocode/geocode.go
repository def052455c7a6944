// Package geocode normalizes free-text address candidates through an
// external geocoding service.
package geocode

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"googlemaps.github.io/maps"
)

// Normalizer resolves an address candidate into a normalized form. An empty
// result with a nil error means the service had no match; callers fall back
// to their raw candidate.
type Normalizer interface {
	Name() string
	Normalize(ctx context.Context, query string) (string, error)
}

// Disabled stands in when no geocoding backend is configured.
type Disabled struct{}

func (Disabled) Name() string { return "disabled" }

func (Disabled) Normalize(ctx context.Context, query string) (string, error) {
	return "", nil
}

// GoogleNormalizer resolves candidates with the Google Maps Geocoding API.
// Calls are bounded by a timeout and a client-side QPS limiter so a slow or
// rate-limited upstream fails the address field, never the request.
type GoogleNormalizer struct {
	client  *maps.Client
	timeout time.Duration
	limiter *rate.Limiter
}

// NewGoogleNormalizer creates the maps client once at startup.
func NewGoogleNormalizer(apiKey string, timeout time.Duration, qps float64) (*GoogleNormalizer, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if qps <= 0 {
		qps = 5
	}
	return &GoogleNormalizer{
		client:  client,
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Limit(qps), 1),
	}, nil
}

func (g *GoogleNormalizer) Name() string { return "googlemaps" }

// Normalize geocodes the candidate, retrying once on failure.
func (g *GoogleNormalizer) Normalize(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil
	}

	formatted, err := g.geocode(ctx, query)
	if err != nil && ctx.Err() == nil {
		formatted, err = g.geocode(ctx, query)
	}
	return formatted, err
}

func (g *GoogleNormalizer) geocode(ctx context.Context, query string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: query})
	if err != nil {
		return "", fmt.Errorf("geocode %q: %w", query, err)
	}
	if len(results) == 0 {
		return "", nil
	}
	return results[0].FormattedAddress, nil
}
