package repository

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/langchou/eldplanner/internal/models"
)

// 需要真实数据库，未设置 DATABASE_URL 时跳过
func openTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func TestTripRepositoryRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewTripRepository(db)
	ctx := context.Background()

	var grid models.Grid
	for i := range grid {
		grid[i] = models.StatusOffDuty
	}
	for i := 24; i < 68; i++ {
		grid[i] = models.StatusDriving
	}

	trip := &models.Trip{
		ID:                 uuid.New().String(),
		CurrentLocation:    "Chicago, IL",
		PickupLocation:     "Chicago, IL",
		DropoffLocation:    "St. Louis, MO",
		StartDate:          "2024-03-04",
		Route:              models.RouteSummary{DistanceMiles: 300, DurationHours: 5},
		Plan:               models.TripPlan{TotalDaysNeeded: 1, CycleCompliant: true},
		Stops:              []models.Stop{},
		TotalDays:          1,
		TotalDistanceMiles: 300,
		CycleCompliant:     true,
		Logs: []models.DailyLog{{
			DayOfTrip:         1,
			Date:              "2024-03-04",
			DriverName:        "Test Driver",
			Grid:              grid,
			DutyStatusChanges: []models.DutyStatusChange{{Time: "00:00", EndMinute: 360, Status: models.StatusOffDuty}},
			TotalDriveTime:    11,
			TotalOffDutyTime:  13,
			Violations:        []string{},
			HOSCompliant:      true,
		}},
	}
	if err := repo.Create(ctx, trip); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, trip.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.DropoffLocation != trip.DropoffLocation || got.Route.DistanceMiles != 300 {
		t.Fatalf("trip = %+v", got)
	}

	logs, err := repo.ListLogs(ctx, trip.ID)
	if err != nil {
		t.Fatalf("ListLogs: %v", err)
	}
	if len(logs) != 1 || logs[0].Grid != grid || logs[0].DriverName != "Test Driver" {
		t.Fatalf("logs = %+v", logs)
	}

	if _, err := repo.GetByID(ctx, uuid.New().String()); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("missing trip error = %v", err)
	}
}

func TestGeocodeCacheRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewGeocodeCacheRepository(db)
	ctx := context.Background()

	key := "test-" + uuid.New().String()
	if _, ok, err := repo.Get(ctx, key); err != nil || ok {
		t.Fatalf("Get before Put = %v, %v", ok, err)
	}
	want := models.Coordinate{Lat: 41.88, Lng: -87.63}
	if err := repo.Put(ctx, key, want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := repo.Get(ctx, key)
	if err != nil || !ok || got != want {
		t.Fatalf("Get = %+v, %v, %v", got, ok, err)
	}
}
