package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/eldplanner/internal/hos"
	"github.com/langchou/eldplanner/internal/models"
	"github.com/langchou/eldplanner/internal/service"
	"github.com/langchou/eldplanner/pkg/ws"
)

type mockTripService struct {
	calculateFn func(ctx context.Context, req models.TripRequest) (*models.RoutePlan, error)
	generateFn  func(ctx context.Context, req models.GenerateLogsRequest) ([]models.DailyLog, error)
	createFn    func(ctx context.Context, req models.SaveTripRequest) (*models.Trip, error)
	getFn       func(ctx context.Context, id string) (*models.Trip, error)
	listFn      func(ctx context.Context, page, perPage int) ([]*models.TripSummary, int64, error)
	logsFn      func(ctx context.Context, id string) ([]models.DailyLog, error)
	validateFn  func(ctx context.Context, req models.ValidateLogsRequest) ([]models.DailyLog, error)
}

func (m *mockTripService) CalculateRoute(ctx context.Context, req models.TripRequest) (*models.RoutePlan, error) {
	return m.calculateFn(ctx, req)
}

func (m *mockTripService) GenerateLogs(ctx context.Context, req models.GenerateLogsRequest) ([]models.DailyLog, error) {
	return m.generateFn(ctx, req)
}

func (m *mockTripService) CreateTrip(ctx context.Context, req models.SaveTripRequest) (*models.Trip, error) {
	return m.createFn(ctx, req)
}

func (m *mockTripService) GetTrip(ctx context.Context, id string) (*models.Trip, error) {
	return m.getFn(ctx, id)
}

func (m *mockTripService) ListTrips(ctx context.Context, page, perPage int) ([]*models.TripSummary, int64, error) {
	return m.listFn(ctx, page, perPage)
}

func (m *mockTripService) GetTripLogs(ctx context.Context, id string) ([]models.DailyLog, error) {
	return m.logsFn(ctx, id)
}

func (m *mockTripService) ValidateLogs(ctx context.Context, req models.ValidateLogsRequest) ([]models.DailyLog, error) {
	return m.validateFn(ctx, req)
}

func newTestRouter(svc TripService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	r := gin.New()
	r.Use(RequestLogger(logger))
	NewHandler(logger, svc, ws.NewHub(logger)).RegisterRoutes(r)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCalculateRoute(t *testing.T) {
	var got models.TripRequest
	svc := &mockTripService{calculateFn: func(_ context.Context, req models.TripRequest) (*models.RoutePlan, error) {
		got = req
		return &models.RoutePlan{HOSPlan: &models.TripPlan{TotalDaysNeeded: 2}, Stops: []models.Stop{}, Warnings: []string{}}, nil
	}}
	r := newTestRouter(svc)

	w := do(r, http.MethodPost, "/api/calculate-route",
		`{"current_location":"Chicago","pickup_location":"Joliet","dropoff_location":"St. Louis","current_cycle_used":12}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	if got.PickupLocation != "Joliet" || got.CycleHours() != 12 {
		t.Fatalf("request = %+v", got)
	}

	var resp struct {
		Data models.RoutePlan `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.HOSPlan == nil || resp.Data.HOSPlan.TotalDaysNeeded != 2 {
		t.Fatalf("response = %s", w.Body)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", fmt.Errorf("plan trip: %w", hos.ErrInvalidInput), http.StatusBadRequest},
		{"too long", fmt.Errorf("plan trip: %w", hos.ErrPlanTooLong), http.StatusUnprocessableEntity},
		{"upstream", fmt.Errorf("%w: geocode: boom", service.ErrExternalDependency), http.StatusBadGateway},
		{"unknown", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockTripService{calculateFn: func(context.Context, models.TripRequest) (*models.RoutePlan, error) {
				return nil, tt.err
			}}
			w := do(newTestRouter(svc), http.MethodPost, "/api/calculate-route", `{}`)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.want == http.StatusInternalServerError && strings.Contains(w.Body.String(), "disk on fire") {
				t.Fatalf("internal error leaked: %s", w.Body)
			}
		})
	}
}

func TestCalculateRouteRejectsMalformedJSON(t *testing.T) {
	w := do(newTestRouter(&mockTripService{}), http.MethodPost, "/api/calculate-route", `{"current_location":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestCreateTrip(t *testing.T) {
	svc := &mockTripService{createFn: func(_ context.Context, req models.SaveTripRequest) (*models.Trip, error) {
		if req.StartDate != "2024-03-04" || req.DriverName != "Sam" {
			t.Errorf("request = %+v", req)
		}
		return &models.Trip{ID: "trip-1"}, nil
	}}

	w := do(newTestRouter(svc), http.MethodPost, "/api/trips",
		`{"current_location":"A","pickup_location":"B","dropoff_location":"C","start_date":"2024-03-04","driver_name":"Sam"}`)
	if w.Code != http.StatusCreated || !strings.Contains(w.Body.String(), `"id":"trip-1"`) {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
}

func TestListTripsPagination(t *testing.T) {
	svc := &mockTripService{listFn: func(_ context.Context, page, perPage int) ([]*models.TripSummary, int64, error) {
		if page != 2 || perPage != 20 {
			t.Errorf("page %d per_page %d", page, perPage)
		}
		return []*models.TripSummary{{ID: "a"}}, 21, nil
	}}

	w := do(newTestRouter(svc), http.MethodGet, "/api/trips?page=2&per_page=500", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Pagination struct {
			Page    int   `json:"page"`
			PerPage int   `json:"per_page"`
			Total   int64 `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Pagination.Page != 2 || resp.Pagination.PerPage != 20 || resp.Pagination.Total != 21 {
		t.Fatalf("pagination = %+v", resp.Pagination)
	}
}

func TestGetTripNotFound(t *testing.T) {
	svc := &mockTripService{getFn: func(context.Context, string) (*models.Trip, error) {
		return nil, service.ErrTripNotFound
	}}

	w := do(newTestRouter(svc), http.MethodGet, "/api/trips/missing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestListLogs(t *testing.T) {
	var asked []string
	svc := &mockTripService{logsFn: func(_ context.Context, id string) ([]models.DailyLog, error) {
		asked = append(asked, id)
		return []models.DailyLog{{DayOfTrip: 1}}, nil
	}}
	r := newTestRouter(svc)

	if w := do(r, http.MethodGet, "/api/logs", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("missing trip status = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/logs?trip=t1", ""); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/trips/t2/eld-logs", ""); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if len(asked) != 2 || asked[0] != "t1" || asked[1] != "t2" {
		t.Fatalf("asked = %v", asked)
	}
}

func TestValidateLogsRejectsShortGrid(t *testing.T) {
	svc := &mockTripService{validateFn: func(context.Context, models.ValidateLogsRequest) ([]models.DailyLog, error) {
		t.Error("service should not be reached")
		return nil, nil
	}}

	w := do(newTestRouter(svc), http.MethodPost, "/api/logs/validate",
		`{"daily_logs":[{"day_of_trip":1,"grid":["driving","off_duty"]}]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
}

func TestHealthCheck(t *testing.T) {
	w := do(newTestRouter(&mockTripService{}), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
}
