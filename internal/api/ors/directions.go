package ors

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/langchou/eldplanner/internal/models"
)

const (
	metersPerMile  = 1609.344
	secondsPerHour = 3600
)

type directionsRequest struct {
	Coordinates [][2]float64 `json:"coordinates"`
}

type directionsResponse struct {
	Features []struct {
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"` // 米
				Duration float64 `json:"duration"` // 秒
			} `json:"summary"`
		} `json:"properties"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// Route 计算两点间的路线，距离换算为英里，时长换算为小时
func (c *Client) Route(ctx context.Context, from, to models.Coordinate) (models.RouteSummary, error) {
	endpoint := fmt.Sprintf("%s/v2/directions/%s/geojson", c.baseURL, c.profile)
	body, err := json.Marshal(directionsRequest{
		Coordinates: [][2]float64{{from.Lng, from.Lat}, {to.Lng, to.Lat}},
	})
	if err != nil {
		return models.RouteSummary{}, fmt.Errorf("marshal directions request: %w", err)
	}

	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodPost, endpoint, body)
	})
	if err != nil {
		return models.RouteSummary{}, fmt.Errorf("directions %s -> %s: %w", from, to, err)
	}
	defer resp.Body.Close()

	var decoded directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return models.RouteSummary{}, fmt.Errorf("decode directions response: %w", err)
	}
	if len(decoded.Features) == 0 {
		return models.RouteSummary{}, fmt.Errorf("directions %s -> %s: no route found", from, to)
	}

	f := decoded.Features[0]
	route := models.RouteSummary{
		DistanceMiles: round2(f.Properties.Summary.Distance / metersPerMile),
		DurationHours: round2(f.Properties.Summary.Duration / secondsPerHour),
		Geometry:      make([]models.Coordinate, 0, len(f.Geometry.Coordinates)),
	}
	for _, p := range f.Geometry.Coordinates {
		if len(p) < 2 {
			continue
		}
		route.Geometry = append(route.Geometry, models.Coordinate{Lat: p[1], Lng: p[0]})
	}
	if len(route.Geometry) == 0 {
		route.Geometry = []models.Coordinate{from, to}
	}
	return route, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
