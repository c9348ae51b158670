package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/eldplanner/internal/models"
)

// TripRepository 行程及其每日日志的数据仓库
type TripRepository struct {
	db *DB
}

// NewTripRepository 创建行程仓库
func NewTripRepository(db *DB) *TripRepository {
	return &TripRepository{db: db}
}

// Create 在一个事务内写入行程和全部日志
func (r *TripRepository) Create(ctx context.Context, trip *models.Trip) error {
	stops, err := json.Marshal(trip.Stops)
	if err != nil {
		return fmt.Errorf("marshal stops: %w", err)
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO trips (id, current_location, pickup_location, dropoff_location, cycle_hours_used, start_date,
			coordinates, route, plan, stops, total_days, total_distance_miles, cycle_compliant)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at
	`
	err = tx.QueryRow(ctx, query,
		trip.ID,
		trip.CurrentLocation,
		trip.PickupLocation,
		trip.DropoffLocation,
		trip.CycleHoursUsed,
		trip.StartDate,
		trip.Coordinates,
		trip.Route,
		trip.Plan,
		stops,
		trip.TotalDays,
		trip.TotalDistanceMiles,
		trip.CycleCompliant,
	).Scan(&trip.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert trip: %w", err)
	}

	for i := range trip.Logs {
		if err := insertLog(ctx, tx, trip.ID, &trip.Logs[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit trip: %w", err)
	}
	return nil
}

func insertLog(ctx context.Context, tx pgx.Tx, tripID string, log *models.DailyLog) error {
	changes, err := json.Marshal(log.DutyStatusChanges)
	if err != nil {
		return fmt.Errorf("marshal duty status changes: %w", err)
	}
	violations, err := json.Marshal(log.Violations)
	if err != nil {
		return fmt.Errorf("marshal violations: %w", err)
	}

	query := `
		INSERT INTO daily_logs (trip_id, day_of_trip, log_date, driver_name, carrier_name, vehicle_id, trailer_id,
			grid, duty_status_changes, total_drive_time, total_on_duty_time, total_off_duty_time, total_sleeper_berth_time,
			odometer_start, odometer_end, distance_traveled, violations, hos_compliant)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err = tx.Exec(ctx, query,
		tripID,
		log.DayOfTrip,
		log.Date,
		log.DriverName,
		log.CarrierName,
		log.VehicleID,
		log.TrailerID,
		log.Grid,
		changes,
		log.TotalDriveTime,
		log.TotalOnDutyTime,
		log.TotalOffDutyTime,
		log.TotalSleeperBerthTime,
		log.OdometerStart,
		log.OdometerEnd,
		log.DistanceTraveled,
		violations,
		log.HOSCompliant,
	)
	if err != nil {
		return fmt.Errorf("insert daily log %d: %w", log.DayOfTrip, err)
	}
	return nil
}

// GetByID 获取行程，不存在时返回包装后的 pgx.ErrNoRows
func (r *TripRepository) GetByID(ctx context.Context, id string) (*models.Trip, error) {
	query := `
		SELECT id, current_location, pickup_location, dropoff_location, cycle_hours_used, start_date,
			coordinates, route, plan, stops, total_days, total_distance_miles, cycle_compliant, created_at
		FROM trips WHERE id = $1
	`
	trip := &models.Trip{}
	var stops []byte
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&trip.ID,
		&trip.CurrentLocation,
		&trip.PickupLocation,
		&trip.DropoffLocation,
		&trip.CycleHoursUsed,
		&trip.StartDate,
		&trip.Coordinates,
		&trip.Route,
		&trip.Plan,
		&stops,
		&trip.TotalDays,
		&trip.TotalDistanceMiles,
		&trip.CycleCompliant,
		&trip.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get trip by id: %w", err)
	}

	trip.Stops = []models.Stop{}
	if len(stops) > 0 {
		if err := json.Unmarshal(stops, &trip.Stops); err != nil {
			return nil, fmt.Errorf("decode stops: %w", err)
		}
	}
	return trip, nil
}

// List 按创建时间倒序分页列出行程
func (r *TripRepository) List(ctx context.Context, limit, offset int) ([]*models.TripSummary, error) {
	query := `
		SELECT id, pickup_location, dropoff_location, total_days, total_distance_miles, cycle_compliant, created_at
		FROM trips ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	defer rows.Close()

	trips := []*models.TripSummary{}
	for rows.Next() {
		t := &models.TripSummary{}
		if err := rows.Scan(
			&t.ID,
			&t.PickupLocation,
			&t.DropoffLocation,
			&t.TotalDays,
			&t.TotalDistanceMiles,
			&t.CycleCompliant,
			&t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan trip: %w", err)
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// Count 行程总数
func (r *TripRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM trips`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count trips: %w", err)
	}
	return count, nil
}

// ListLogs 按天序列出行程的日志
func (r *TripRepository) ListLogs(ctx context.Context, tripID string) ([]models.DailyLog, error) {
	query := `
		SELECT day_of_trip, log_date, driver_name, carrier_name, vehicle_id, trailer_id,
			grid, duty_status_changes, total_drive_time, total_on_duty_time, total_off_duty_time, total_sleeper_berth_time,
			odometer_start, odometer_end, distance_traveled, violations, hos_compliant
		FROM daily_logs WHERE trip_id = $1 ORDER BY day_of_trip
	`
	rows, err := r.db.Pool.Query(ctx, query, tripID)
	if err != nil {
		return nil, fmt.Errorf("list daily logs: %w", err)
	}
	defer rows.Close()

	logs := []models.DailyLog{}
	for rows.Next() {
		var (
			log        models.DailyLog
			changes    []byte
			violations []byte
		)
		if err := rows.Scan(
			&log.DayOfTrip,
			&log.Date,
			&log.DriverName,
			&log.CarrierName,
			&log.VehicleID,
			&log.TrailerID,
			&log.Grid,
			&changes,
			&log.TotalDriveTime,
			&log.TotalOnDutyTime,
			&log.TotalOffDutyTime,
			&log.TotalSleeperBerthTime,
			&log.OdometerStart,
			&log.OdometerEnd,
			&log.DistanceTraveled,
			&violations,
			&log.HOSCompliant,
		); err != nil {
			return nil, fmt.Errorf("scan daily log: %w", err)
		}
		if err := json.Unmarshal(changes, &log.DutyStatusChanges); err != nil {
			return nil, fmt.Errorf("decode duty status changes: %w", err)
		}
		if err := json.Unmarshal(violations, &log.Violations); err != nil {
			return nil, fmt.Errorf("decode violations: %w", err)
		}
		if log.Violations == nil {
			log.Violations = []string{}
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
