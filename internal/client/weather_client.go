package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"fieldhealth-service/internal/config"
)

// WeatherAggregates are trailing-window weather statistics for a point.
type WeatherAggregates struct {
	TempMean      float64 `json:"temp_mean"`
	RainfallTotal float64 `json:"rainfall_total"`
	HumidityMean  float64 `json:"humidity_mean"`
	WindSpeedMean float64 `json:"wind_speed_mean"`
}

type powerResponse struct {
	Properties struct {
		Parameter map[string]map[string]float64 `json:"parameter"`
	} `json:"properties"`
}

// WeatherClient wraps the NASA POWER daily-point API.
type WeatherClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewWeatherClient(cfg *config.Config) *WeatherClient {
	return &WeatherClient{
		baseURL: cfg.Sources.WeatherBaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Sources.Timeout,
		},
	}
}

// FetchAggregates returns daily weather aggregated over the trailing window
// of the given number of days ending today.
func (c *WeatherClient) FetchAggregates(ctx context.Context, lat, lon float64, days int) (*WeatherAggregates, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("weather base URL is not configured")
	}

	end := time.Now()
	start := end.AddDate(0, 0, -days)

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid weather base URL: %w", err)
	}
	q := u.Query()
	q.Set("parameters", "T2M,PRECTOTCORR,RH2M,WS2M")
	q.Set("community", "AG")
	q.Set("latitude", fmt.Sprintf("%f", lat))
	q.Set("longitude", fmt.Sprintf("%f", lon))
	q.Set("start", start.Format("20060102"))
	q.Set("end", end.Format("20060102"))
	q.Set("format", "JSON")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API returned status %d: %s", resp.StatusCode, string(body))
	}

	var power powerResponse
	if err := json.Unmarshal(body, &power); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	temp, err := series(power, "T2M")
	if err != nil {
		return nil, err
	}
	rain, err := series(power, "PRECTOTCORR")
	if err != nil {
		return nil, err
	}
	humidity, err := series(power, "RH2M")
	if err != nil {
		return nil, err
	}
	wind, err := series(power, "WS2M")
	if err != nil {
		return nil, err
	}

	return &WeatherAggregates{
		TempMean:      stat.Mean(temp, nil),
		RainfallTotal: floats.Sum(rain),
		HumidityMean:  stat.Mean(humidity, nil),
		WindSpeedMean: stat.Mean(wind, nil),
	}, nil
}

func series(power powerResponse, parameter string) ([]float64, error) {
	daily, ok := power.Properties.Parameter[parameter]
	if !ok || len(daily) == 0 {
		return nil, fmt.Errorf("weather response missing parameter %s", parameter)
	}
	values := make([]float64, 0, len(daily))
	for _, v := range daily {
		values = append(values, v)
	}
	return values, nil
}
