package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fieldhealth-service/internal/config"
	"fieldhealth-service/internal/geometry"
)

// NDVIStats is the aggregated vegetation-index response for a bounding box.
type NDVIStats struct {
	Mean          float64 `json:"ndvi_mean"`
	Min           float64 `json:"ndvi_min"`
	Max           float64 `json:"ndvi_max"`
	CloudCoverage float64 `json:"cloud_coverage"`
	ValidPixels   int     `json:"valid_pixels"`
}

// SoilMoistureStats is the aggregated radar soil-moisture proxy response.
type SoilMoistureStats struct {
	Estimate float64 `json:"soil_moisture_est"`
}

type statsRequest struct {
	Collection string    `json:"collection"`
	BBox       []float64 `json:"bbox"`
	From       string    `json:"from"`
	To         string    `json:"to"`
}

// SentinelClient talks to the satellite statistics gateway that wraps the
// Sentinel Hub statistical API (Sentinel-2 for NDVI, Sentinel-1 for the
// soil-moisture proxy).
type SentinelClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

func NewSentinelClient(cfg *config.Config) *SentinelClient {
	return &SentinelClient{
		baseURL:      cfg.Sources.SentinelBaseURL,
		clientID:     cfg.Sources.SentinelClientID,
		clientSecret: cfg.Sources.SentinelClientSecret,
		httpClient: &http.Client{
			Timeout: cfg.Sources.Timeout,
		},
	}
}

// FetchNDVI returns NDVI aggregates for the bounding box over the window.
func (c *SentinelClient) FetchNDVI(ctx context.Context, bbox geometry.BBox, from, to time.Time) (*NDVIStats, error) {
	var stats NDVIStats
	if err := c.fetchStats(ctx, "sentinel-2-l1c", bbox, from, to, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// FetchSoilMoisture returns the scalar soil-moisture estimate for the
// bounding box over the window.
func (c *SentinelClient) FetchSoilMoisture(ctx context.Context, bbox geometry.BBox, from, to time.Time) (float64, error) {
	var stats SoilMoistureStats
	if err := c.fetchStats(ctx, "sentinel-1-iw", bbox, from, to, &stats); err != nil {
		return 0, err
	}
	return stats.Estimate, nil
}

func (c *SentinelClient) fetchStats(ctx context.Context, collection string, bbox geometry.BBox, from, to time.Time, out interface{}) error {
	if c.baseURL == "" {
		return fmt.Errorf("sentinel base URL is not configured")
	}

	payload, err := json.Marshal(statsRequest{
		Collection: collection,
		BBox:       []float64{bbox.MinLon, bbox.MinLat, bbox.MaxLon, bbox.MaxLat},
		From:       from.Format("2006-01-02"),
		To:         to.Format("2006-01-02"),
	})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/statistics", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.clientID != "" {
		req.SetBasicAuth(c.clientID, c.clientSecret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sentinel gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}
