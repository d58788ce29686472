package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// PPUGStationStatus is one station's ratio compliance as reported by the
// external PPUG service.
type PPUGStationStatus struct {
	StationCode string  `json:"station_code"`
	StationName string  `json:"station_name"`
	Status      string  `json:"status"`
	RatioActual float64 `json:"ratio_actual"`
	RatioTarget float64 `json:"ratio_target"`
}

// PPUGResponse is the external API envelope.
type PPUGResponse struct {
	OK       bool                `json:"ok"`
	Error    string              `json:"error"`
	Stations []PPUGStationStatus `json:"stations"`
}

// PPUGClient talks to the external PPUG compliance API.
type PPUGClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewPPUGClient(baseURL, apiKey string, logger *zap.Logger) *PPUGClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}

	return &PPUGClient{
		httpClient: client,
		logger:     logger,
	}
}

// FetchStatuses pulls the compliance statuses for one reporting month.
func (c *PPUGClient) FetchStatuses(ctx context.Context, year, month int) ([]PPUGStationStatus, error) {
	c.logger.Info("Calling PPUG API: station statuses",
		zap.Int("year", year),
		zap.Int("month", month),
	)

	var response PPUGResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("year", fmt.Sprintf("%d", year)).
		SetQueryParam("month", fmt.Sprintf("%d", month)).
		SetResult(&response).
		Get("/v1/stations/status")

	if err != nil {
		c.logger.Error("PPUG API call failed",
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to call PPUG API: %w", err)
	}
	if resp.IsError() {
		c.logger.Error("PPUG API returned error status",
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, fmt.Errorf("PPUG API error: HTTP %d", resp.StatusCode())
	}
	if !response.OK {
		c.logger.Error("PPUG API returned error",
			zap.String("error", response.Error),
		)
		return nil, fmt.Errorf("PPUG API error: %s", response.Error)
	}

	c.logger.Info("Successfully retrieved PPUG statuses",
		zap.Int("station_count", len(response.Stations)),
	)

	return response.Stations, nil
}
