package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB 数据库连接池封装
type DB struct {
	Pool *pgxpool.Pool
}

// New 创建数据库连接
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	// 连接池配置
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// 测试连接
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close 关闭连接池
func (db *DB) Close() {
	db.Pool.Close()
}

// Migrate 执行数据库迁移
func (db *DB) Migrate(ctx context.Context) error {
	migrations := []string{
		migrationCreateTrips,
		migrationCreateDailyLogs,
		migrationCreateGeocodeCache,
		migrationIndexTripsCreatedAt,
	}

	for _, m := range migrations {
		if _, err := db.Pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}

	return nil
}

// 数据库迁移 SQL
const migrationCreateTrips = `
CREATE TABLE IF NOT EXISTS trips (
    id TEXT PRIMARY KEY,
    current_location TEXT NOT NULL,
    pickup_location TEXT NOT NULL,
    dropoff_location TEXT NOT NULL,
    cycle_hours_used DOUBLE PRECISION NOT NULL DEFAULT 0,
    start_date TEXT NOT NULL,
    coordinates JSONB,
    route JSONB,
    plan JSONB,
    stops JSONB,
    total_days INTEGER NOT NULL DEFAULT 0,
    total_distance_miles DOUBLE PRECISION NOT NULL DEFAULT 0,
    cycle_compliant BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const migrationCreateDailyLogs = `
CREATE TABLE IF NOT EXISTS daily_logs (
    id BIGSERIAL PRIMARY KEY,
    trip_id TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
    day_of_trip INTEGER NOT NULL,
    log_date TEXT NOT NULL,
    driver_name TEXT NOT NULL DEFAULT '',
    carrier_name TEXT NOT NULL DEFAULT '',
    vehicle_id TEXT NOT NULL DEFAULT '',
    trailer_id TEXT NOT NULL DEFAULT '',
    grid JSONB NOT NULL,
    duty_status_changes JSONB NOT NULL,
    total_drive_time DOUBLE PRECISION NOT NULL DEFAULT 0,
    total_on_duty_time DOUBLE PRECISION NOT NULL DEFAULT 0,
    total_off_duty_time DOUBLE PRECISION NOT NULL DEFAULT 0,
    total_sleeper_berth_time DOUBLE PRECISION NOT NULL DEFAULT 0,
    odometer_start DOUBLE PRECISION NOT NULL DEFAULT 0,
    odometer_end DOUBLE PRECISION NOT NULL DEFAULT 0,
    distance_traveled DOUBLE PRECISION NOT NULL DEFAULT 0,
    violations JSONB NOT NULL DEFAULT '[]',
    hos_compliant BOOLEAN NOT NULL DEFAULT TRUE,
    UNIQUE (trip_id, day_of_trip)
);
`

const migrationCreateGeocodeCache = `
CREATE TABLE IF NOT EXISTS geocode_cache (
    query TEXT PRIMARY KEY,
    latitude DOUBLE PRECISION NOT NULL,
    longitude DOUBLE PRECISION NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const migrationIndexTripsCreatedAt = `
CREATE INDEX IF NOT EXISTS idx_trips_created_at ON trips(created_at DESC);
`
