package ors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/langchou/eldplanner/internal/models"
)

// ErrNoResult 地址无法解析
var ErrNoResult = errors.New("no geocode result")

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// Geocode 解析地址为坐标；"lat,lng" 形式直接返回，不发请求
func (c *Client) Geocode(ctx context.Context, query string) (models.Coordinate, error) {
	if coord, ok := models.ParseCoordinate(query); ok {
		return coord, nil
	}

	key := normalize(query)
	if key == "" {
		return models.Coordinate{}, fmt.Errorf("geocode: empty location")
	}
	if coord, ok := c.cached(key); ok {
		return coord, nil
	}

	if c.store != nil {
		coord, ok, err := c.store.Get(ctx, key)
		if err != nil {
			c.logger.Warn("Failed to read geocode cache", zap.String("query", key), zap.Error(err))
		} else if ok {
			c.remember(key, coord)
			return coord, nil
		}
	}

	coord, err := c.search(ctx, key)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("geocode %q: %w", query, err)
	}

	c.remember(key, coord)
	if c.store != nil {
		if err := c.store.Put(ctx, key, coord); err != nil {
			c.logger.Warn("Failed to write geocode cache", zap.String("query", key), zap.Error(err))
		}
	}
	return coord, nil
}

func (c *Client) search(ctx context.Context, text string) (models.Coordinate, error) {
	endpoint := c.baseURL + "/geocode/search"

	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", text)
		q.Set("boundary.country", "US")
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return models.Coordinate{}, err
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return models.Coordinate{}, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(decoded.Features) == 0 {
		return models.Coordinate{}, ErrNoResult
	}

	// GeoJSON 坐标顺序为 [lng, lat]
	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) < 2 {
		return models.Coordinate{}, fmt.Errorf("invalid coordinate format")
	}
	return models.Coordinate{Lat: coords[1], Lng: coords[0]}, nil
}
