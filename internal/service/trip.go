package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/langchou/eldplanner/internal/hos"
	"github.com/langchou/eldplanner/internal/models"
	"github.com/langchou/eldplanner/pkg/ws"
)

var (
	// ErrExternalDependency 地理编码或路线服务失败
	ErrExternalDependency = errors.New("external dependency failed")
	// ErrTripNotFound 行程不存在
	ErrTripNotFound = errors.New("trip not found")
)

// RouteProvider 地理编码和路线规划
type RouteProvider interface {
	Geocode(ctx context.Context, query string) (models.Coordinate, error)
	Route(ctx context.Context, from, to models.Coordinate) (models.RouteSummary, error)
}

// TripStore 行程持久化
type TripStore interface {
	Create(ctx context.Context, trip *models.Trip) error
	GetByID(ctx context.Context, id string) (*models.Trip, error)
	List(ctx context.Context, limit, offset int) ([]*models.TripSummary, error)
	Count(ctx context.Context) (int64, error)
	ListLogs(ctx context.Context, tripID string) ([]models.DailyLog, error)
}

// Broadcaster 推送实时消息
type Broadcaster interface {
	BroadcastMessage(msgType string, data interface{})
}

// Options 服务级默认值
type Options struct {
	Placement         hos.PlacementMode
	StrictCycle       bool
	CycleWarningHours float64
	Metadata          models.LogMetadata
}

// TripService 行程规划服务：编排路线、分段、日志和存储
type TripService struct {
	logger  *zap.Logger
	planner *hos.Planner
	routes  RouteProvider
	store   TripStore
	hub     Broadcaster
	opts    Options
	now     func() time.Time
}

// NewTripService 创建行程服务，hub 可以为 nil
func NewTripService(
	logger *zap.Logger,
	planner *hos.Planner,
	routes RouteProvider,
	store TripStore,
	hub Broadcaster,
	opts Options,
) *TripService {
	return &TripService{
		logger:  logger,
		planner: planner,
		routes:  routes,
		store:   store,
		hub:     hub,
		opts:    opts,
		now:     time.Now,
	}
}

// CalculateRoute 解析地址、计算两段路线并生成 HOS 计划和停靠点
func (s *TripService) CalculateRoute(ctx context.Context, req models.TripRequest) (*models.RoutePlan, error) {
	for _, f := range []struct{ name, value string }{
		{"current_location", req.CurrentLocation},
		{"pickup_location", req.PickupLocation},
		{"dropoff_location", req.DropoffLocation},
	} {
		if strings.TrimSpace(f.value) == "" {
			return nil, fmt.Errorf("%w: %s is required", hos.ErrInvalidInput, f.name)
		}
	}
	cycle := req.CycleHours()

	coords, err := s.geocodeAll(ctx, req)
	if err != nil {
		return nil, err
	}

	currentLeg := models.RouteSummary{Geometry: []models.Coordinate{coords.Current}}
	if coords.Current != coords.Pickup {
		currentLeg, err = s.routes.Route(ctx, coords.Current, coords.Pickup)
		if err != nil {
			return nil, fmt.Errorf("%w: current leg: %w", ErrExternalDependency, err)
		}
	}
	tripLeg, err := s.routes.Route(ctx, coords.Pickup, coords.Dropoff)
	if err != nil {
		return nil, fmt.Errorf("%w: trip leg: %w", ErrExternalDependency, err)
	}
	combined := combineLegs(currentLeg, tripLeg)

	plan, err := s.planner.Plan(combined, cycle, hos.PlanOptions{
		PickupAfterHours: currentLeg.DurationHours,
		CurrentLocation:  req.CurrentLocation,
		PickupLocation:   req.PickupLocation,
		DropoffLocation:  req.DropoffLocation,
		StrictCycle:      s.opts.StrictCycle,
	})
	if err != nil {
		return nil, fmt.Errorf("plan trip: %w", err)
	}

	result := &models.RoutePlan{
		Coordinates:   coords,
		CurrentLeg:    currentLeg,
		TripLeg:       tripLeg,
		CombinedRoute: combined,
		HOSPlan:       plan,
		Stops:         hos.PlaceStops(plan, combined.Geometry, s.opts.Placement),
		Warnings:      s.warnings(plan, cycle),
	}

	s.logger.Info("Trip planned",
		zap.String("pickup", req.PickupLocation),
		zap.String("dropoff", req.DropoffLocation),
		zap.Float64("distance_miles", combined.DistanceMiles),
		zap.Int("days", plan.TotalDaysNeeded),
		zap.Bool("cycle_compliant", plan.CycleCompliant),
	)
	s.broadcast(ws.MsgTypeTripPlanned, map[string]interface{}{
		"pickup_location":      req.PickupLocation,
		"dropoff_location":     req.DropoffLocation,
		"total_days":           plan.TotalDaysNeeded,
		"total_distance_miles": combined.DistanceMiles,
		"cycle_compliant":      plan.CycleCompliant,
	})
	return result, nil
}

func (s *TripService) geocodeAll(ctx context.Context, req models.TripRequest) (models.TripCoordinates, error) {
	var coords models.TripCoordinates
	targets := []struct {
		name  string
		query string
		dst   *models.Coordinate
	}{
		{"current location", req.CurrentLocation, &coords.Current},
		{"pickup location", req.PickupLocation, &coords.Pickup},
		{"dropoff location", req.DropoffLocation, &coords.Dropoff},
	}
	for _, t := range targets {
		c, err := s.routes.Geocode(ctx, t.query)
		if err != nil {
			return coords, fmt.Errorf("%w: geocode %s: %w", ErrExternalDependency, t.name, err)
		}
		*t.dst = c
	}
	return coords, nil
}

// combineLegs 拼接两段路线，衔接点只保留一次
func combineLegs(first, second models.RouteSummary) models.RouteSummary {
	geometry := make([]models.Coordinate, 0, len(first.Geometry)+len(second.Geometry))
	geometry = append(geometry, first.Geometry...)
	for i, c := range second.Geometry {
		if i == 0 && len(geometry) > 0 && geometry[len(geometry)-1] == c {
			continue
		}
		geometry = append(geometry, c)
	}
	return models.RouteSummary{
		DistanceMiles: first.DistanceMiles + second.DistanceMiles,
		DurationHours: first.DurationHours + second.DurationHours,
		Geometry:      geometry,
	}
}

func (s *TripService) warnings(plan *models.TripPlan, cycle float64) []string {
	rules := s.planner.Rules()
	warnings := []string{}
	switch {
	case plan.DrivingProhibited:
		warnings = append(warnings, fmt.Sprintf(
			"Cycle limit reached (%.1f/%.0f hours): driving is prohibited until a 34-hour restart", cycle, rules.MaxCycleHours))
	case !plan.CycleCompliant:
		warnings = append(warnings, fmt.Sprintf(
			"Trip exceeds the %.0f-hour cycle limit (%.1f hours at end); a 34-hour restart is required", rules.MaxCycleHours, plan.CycleHoursAtEnd))
	default:
		if remaining := rules.CycleRemaining(cycle); remaining < s.opts.CycleWarningHours {
			warnings = append(warnings, fmt.Sprintf("Only %.1f hours remain in the %.0f-hour cycle", remaining, rules.MaxCycleHours))
		}
	}
	if plan.Degraded {
		warnings = append(warnings, "Route data incomplete; plan is approximate")
	}
	return warnings
}

// GenerateLogs 将已有计划转换为每日 ELD 日志
func (s *TripService) GenerateLogs(ctx context.Context, req models.GenerateLogsRequest) ([]models.DailyLog, error) {
	if req.TripPlan == nil || len(req.TripPlan.DailyPlans) == 0 {
		return nil, fmt.Errorf("%w: trip_plan with daily_plans is required", hos.ErrInvalidInput)
	}
	start, err := s.startDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	odometer, err := odometerStart(req.OdometerStart)
	if err != nil {
		return nil, err
	}

	logs := hos.GenerateLogs(req.TripPlan, start, s.metadata(req.LogMetadata), odometer, s.planner.Detector())
	s.logger.Debug("Generated ELD logs", zap.Int("days", len(logs)), zap.String("start_date", start.Format(hos.DateLayout)))
	return logs, nil
}

// CreateTrip 规划行程、生成日志并在一个事务内保存
func (s *TripService) CreateTrip(ctx context.Context, req models.SaveTripRequest) (*models.Trip, error) {
	start, err := s.startDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	odometer, err := odometerStart(req.OdometerStart)
	if err != nil {
		return nil, err
	}

	planned, err := s.CalculateRoute(ctx, req.TripRequest)
	if err != nil {
		return nil, err
	}
	plan := planned.HOSPlan

	trip := &models.Trip{
		ID:                 uuid.New().String(),
		CurrentLocation:    req.CurrentLocation,
		PickupLocation:     req.PickupLocation,
		DropoffLocation:    req.DropoffLocation,
		CycleHoursUsed:     req.CycleHours(),
		StartDate:          start.Format(hos.DateLayout),
		Coordinates:        planned.Coordinates,
		Route:              planned.CombinedRoute,
		Plan:               *plan,
		Stops:              planned.Stops,
		TotalDays:          plan.TotalDaysNeeded,
		TotalDistanceMiles: planned.CombinedRoute.DistanceMiles,
		CycleCompliant:     plan.CycleCompliant,
		Logs:               hos.GenerateLogs(plan, start, s.metadata(req.LogMetadata), odometer, s.planner.Detector()),
	}

	if err := s.store.Create(ctx, trip); err != nil {
		return nil, fmt.Errorf("save trip: %w", err)
	}

	s.logger.Info("Trip saved", zap.String("trip_id", trip.ID), zap.Int("days", trip.TotalDays))
	s.broadcast(ws.MsgTypeTripSaved, summarize(trip))
	return trip, nil
}

// GetTrip 获取行程及其日志
func (s *TripService) GetTrip(ctx context.Context, id string) (*models.Trip, error) {
	trip, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	logs, err := s.store.ListLogs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load trip logs: %w", err)
	}
	trip.Logs = logs
	return trip, nil
}

// ListTrips 分页列出行程，返回列表和总数
func (s *TripService) ListTrips(ctx context.Context, page, perPage int) ([]*models.TripSummary, int64, error) {
	trips, err := s.store.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return trips, total, nil
}

// GetTripLogs 获取行程的全部日志
func (s *TripService) GetTripLogs(ctx context.Context, id string) ([]models.DailyLog, error) {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return nil, notFound(err)
	}
	return s.store.ListLogs(ctx, id)
}

// ValidateLogs 按格子重算汇总并重新检查违规
func (s *TripService) ValidateLogs(ctx context.Context, req models.ValidateLogsRequest) ([]models.DailyLog, error) {
	if len(req.DailyLogs) == 0 {
		return nil, fmt.Errorf("%w: daily_logs is required", hos.ErrInvalidInput)
	}
	if req.CycleHoursUsed < 0 {
		return nil, fmt.Errorf("%w: cycle_hours_used must be non-negative", hos.ErrInvalidInput)
	}

	logs := make([]models.DailyLog, len(req.DailyLogs))
	for i, log := range req.DailyLogs {
		logs[i] = hos.RecomputeTotals(log)
	}
	return s.planner.Detector().AnnotateLogs(logs, req.CycleHoursUsed), nil
}

// TripCount 行程总数，用于 WebSocket 初始化消息
func (s *TripService) TripCount(ctx context.Context) (int64, error) {
	return s.store.Count(ctx)
}

func (s *TripService) startDate(value string) (time.Time, error) {
	if value == "" {
		now := s.now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(hos.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: start_date %q must be YYYY-MM-DD", hos.ErrInvalidInput, value)
	}
	return t, nil
}

func odometerStart(v *float64) (float64, error) {
	if v == nil {
		return 0, nil
	}
	if *v < 0 {
		return 0, fmt.Errorf("%w: odometer_start must be non-negative", hos.ErrInvalidInput)
	}
	return *v, nil
}

// metadata 请求中未填的字段使用配置默认值
func (s *TripService) metadata(m models.LogMetadata) models.LogMetadata {
	def := s.opts.Metadata
	if m.DriverName == "" {
		m.DriverName = def.DriverName
	}
	if m.CarrierName == "" {
		m.CarrierName = def.CarrierName
	}
	if m.VehicleID == "" {
		m.VehicleID = def.VehicleID
	}
	if m.TrailerID == "" {
		m.TrailerID = def.TrailerID
	}
	return m
}

func summarize(t *models.Trip) *models.TripSummary {
	return &models.TripSummary{
		ID:                 t.ID,
		PickupLocation:     t.PickupLocation,
		DropoffLocation:    t.DropoffLocation,
		TotalDays:          t.TotalDays,
		TotalDistanceMiles: t.TotalDistanceMiles,
		CycleCompliant:     t.CycleCompliant,
		CreatedAt:          t.CreatedAt,
	}
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrTripNotFound
	}
	return err
}

func (s *TripService) broadcast(msgType string, data interface{}) {
	if s.hub != nil {
		s.hub.BroadcastMessage(msgType, data)
	}
}
