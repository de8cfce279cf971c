// Package matching is the client for the geo-matching collaborator. The
// collaborator picks candidate drivers for a ride, records an offer on its
// side, and returns the driver ids it notified.
package matching

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ridehive/internal/models"
)

type Matcher interface {
	FindAndOfferRide(ctx context.Context, rideID string, batch int) ([]string, error)
	CleanupExpiredOffers(ctx context.Context) error
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type offerRequest struct {
	RideID string `json:"ride_id"`
	Batch  int    `json:"batch"`
}

type offerResponse struct {
	DriverIDs []string `json:"driver_ids"`
}

func (c *Client) FindAndOfferRide(ctx context.Context, rideID string, batch int) ([]string, error) {
	body, err := json.Marshal(offerRequest{RideID: rideID, Batch: batch})
	if err != nil {
		return nil, fmt.Errorf("failed to encode offer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/offers", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build offer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: matching service unreachable: %v", models.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: matching service returned %d", models.ErrUpstreamUnavailable, resp.StatusCode)
	}

	// A degraded backend behind a proxy can answer 200 with an HTML error
	// page; treat anything that does not decode as an upstream failure.
	var out offerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: matching service returned malformed payload: %v", models.ErrUpstreamUnavailable, err)
	}

	return out.DriverIDs, nil
}

func (c *Client) CleanupExpiredOffers(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/offers/cleanup", nil)
	if err != nil {
		return fmt.Errorf("failed to build cleanup request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: matching service unreachable: %v", models.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%w: offer cleanup returned %d", models.ErrUpstreamUnavailable, resp.StatusCode)
	}
	return nil
}
