// Package fare talks to the fare-estimation collaborator: given a route it
// returns the floor price a ride may not undercut.
package fare

import (
	"context"
	"fmt"
	"math"

	"ridehive/internal/models"
	"ridehive/internal/utils"

	"googlemaps.github.io/maps"
)

type Estimator interface {
	EstimateFloorPrice(ctx context.Context, pickup, dropoff utils.Point) (float64, error)
}

type Config struct {
	APIKey      string
	BaseFare    float64
	PerKMRate   float64
	MinimumFare float64
}

type GoogleMapsEstimator struct {
	client *maps.Client
	config *Config
}

func NewGoogleMapsEstimator(config *Config) (*GoogleMapsEstimator, error) {
	client, err := maps.NewClient(maps.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return &GoogleMapsEstimator{
		client: client,
		config: config,
	}, nil
}

func (g *GoogleMapsEstimator) EstimateFloorPrice(ctx context.Context, pickup, dropoff utils.Point) (float64, error) {
	req := &maps.DistanceMatrixRequest{
		Origins:      []string{pickup.String()},
		Destinations: []string{dropoff.String()},
		Mode:         maps.TravelModeDriving,
	}

	resp, err := g.client.DistanceMatrix(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("%w: distance matrix request failed: %v", models.ErrUpstreamUnavailable, err)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return 0, fmt.Errorf("%w: empty distance matrix response", models.ErrUpstreamUnavailable)
	}

	element := resp.Rows[0].Elements[0]
	if element.Status != "OK" {
		// Fall back to straight-line distance when no driving route exists.
		return g.priceForKM(utils.DistanceMeters(pickup.Lat, pickup.Lng, dropoff.Lat, dropoff.Lng) / 1000), nil
	}

	return g.priceForKM(float64(element.Distance.Meters) / 1000), nil
}

func (g *GoogleMapsEstimator) priceForKM(distanceKM float64) float64 {
	price := g.config.BaseFare + g.config.PerKMRate*distanceKM
	price = math.Round(price*100) / 100
	if price < g.config.MinimumFare {
		price = g.config.MinimumFare
	}
	return price
}
