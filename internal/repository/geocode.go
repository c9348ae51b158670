package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/eldplanner/internal/models"
)

// GeocodeCacheRepository 地理编码结果的持久缓存
type GeocodeCacheRepository struct {
	db *DB
}

// NewGeocodeCacheRepository 创建地理编码缓存仓库
func NewGeocodeCacheRepository(db *DB) *GeocodeCacheRepository {
	return &GeocodeCacheRepository{db: db}
}

// Get 查询缓存，未命中时 ok 为 false
func (r *GeocodeCacheRepository) Get(ctx context.Context, query string) (models.Coordinate, bool, error) {
	var c models.Coordinate
	err := r.db.Pool.QueryRow(ctx,
		`SELECT latitude, longitude FROM geocode_cache WHERE query = $1`, query,
	).Scan(&c.Lat, &c.Lng)
	if errors.Is(err, pgx.ErrNoRows) {
		return c, false, nil
	}
	if err != nil {
		return c, false, fmt.Errorf("get geocode cache: %w", err)
	}
	return c, true, nil
}

// Put 写入或覆盖缓存
func (r *GeocodeCacheRepository) Put(ctx context.Context, query string, c models.Coordinate) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO geocode_cache (query, latitude, longitude) VALUES ($1, $2, $3)
		ON CONFLICT (query) DO UPDATE SET latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude, created_at = NOW()
	`, query, c.Lat, c.Lng)
	if err != nil {
		return fmt.Errorf("put geocode cache: %w", err)
	}
	return nil
}
