package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Coordinate 经纬度
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ParseCoordinate 解析 "lat,lng" 形式的位置
func ParseCoordinate(s string) (Coordinate, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Coordinate{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinate{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinate{}, false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Coordinate{}, false
	}
	return Coordinate{Lat: lat, Lng: lng}, true
}

// String 格式化为 "lat,lng"
func (c Coordinate) String() string {
	return fmt.Sprintf("%.5f,%.5f", c.Lat, c.Lng)
}

// RouteSummary 路线摘要（来自路线服务）
type RouteSummary struct {
	DistanceMiles float64      `json:"distance_miles"`
	DurationHours float64      `json:"duration_hours"` // 纯驾驶时间
	Geometry      []Coordinate `json:"geometry"`       // 按行驶顺序
}

// TripRequest 行程规划请求
type TripRequest struct {
	CurrentLocation  string   `json:"current_location"`
	PickupLocation   string   `json:"pickup_location"`
	DropoffLocation  string   `json:"dropoff_location"`
	CycleHoursUsed   *float64 `json:"cycle_hours_used,omitempty"`
	CurrentCycleUsed *float64 `json:"current_cycle_used,omitempty"` // 旧字段名
}

// CycleHours 已用周期小时数，两个字段都没有时为 0
func (r TripRequest) CycleHours() float64 {
	if r.CycleHoursUsed != nil {
		return *r.CycleHoursUsed
	}
	if r.CurrentCycleUsed != nil {
		return *r.CurrentCycleUsed
	}
	return 0
}

// SaveTripRequest 规划并保存行程（含 ELD 日志）
type SaveTripRequest struct {
	TripRequest
	LogMetadata
	StartDate     string   `json:"start_date"` // YYYY-MM-DD
	OdometerStart *float64 `json:"odometer_start,omitempty"`
}

// DailyPlan 单日计划
type DailyPlan struct {
	Day               int                `json:"day"`
	DrivingHours      float64            `json:"driving_hours"`
	OnDutyHours       float64            `json:"on_duty_hours"` // 驾驶 + 值班非驾驶
	DistanceMiles     float64            `json:"distance_miles"`
	StartMiles        float64            `json:"start_miles"` // 当天开始时的累计里程
	FuelStops         int                `json:"fuel_stops"`
	FuelStopMiles     []float64          `json:"fuel_stop_miles,omitempty"`
	MandatoryBreaks   int                `json:"mandatory_breaks"`
	CycleHoursAtEnd   float64            `json:"cycle_hours_at_end"`
	DutyStatusChanges []DutyStatusChange `json:"duty_status_changes"`
	Violations        []string           `json:"violations"`
}

// TripPlan 整个行程的 HOS 计划
type TripPlan struct {
	Route             RouteSummary `json:"route"`
	DailyPlans        []DailyPlan  `json:"daily_plans"`
	TotalDaysNeeded   int          `json:"total_days_needed"`
	CycleCompliant    bool         `json:"cycle_compliant"`
	CycleHoursUsed    float64      `json:"cycle_hours_used"`   // 出发时
	CycleHoursAtEnd   float64      `json:"cycle_hours_at_end"` // 结束时
	TotalDrivingHours float64      `json:"total_driving_hours"`
	TotalOnDutyHours  float64      `json:"total_on_duty_hours"`
	DrivingProhibited bool         `json:"driving_prohibited"`
	Degraded          bool         `json:"degraded"`
	Notes             []string     `json:"notes,omitempty"`
}

// Stop 地图上的停靠点
type Stop struct {
	Type       string     `json:"type"` // rest / fuel
	Day        int        `json:"day"`
	Miles      float64    `json:"miles"`    // 累计里程
	Fraction   float64    `json:"fraction"` // 占总里程比例
	Coordinate Coordinate `json:"coordinate"`
	Label      string     `json:"label"`
}

// 停靠点类型
const (
	StopTypeRest = "rest"
	StopTypeFuel = "fuel"
)

// TripCoordinates 三个地点的坐标
type TripCoordinates struct {
	Current Coordinate `json:"current"`
	Pickup  Coordinate `json:"pickup"`
	Dropoff Coordinate `json:"dropoff"`
}

// RoutePlan 路线计算结果
type RoutePlan struct {
	Coordinates   TripCoordinates `json:"coordinates"`
	CurrentLeg    RouteSummary    `json:"current_leg"` // 当前位置 → 提货点
	TripLeg       RouteSummary    `json:"trip_leg"`    // 提货点 → 卸货点
	CombinedRoute RouteSummary    `json:"combined_route"`
	HOSPlan       *TripPlan       `json:"hos_plan"`
	Stops         []Stop          `json:"stops"`
	Warnings      []string        `json:"warnings"`
}

// Trip 已保存的行程
type Trip struct {
	ID                 string          `json:"id" db:"id"`
	CurrentLocation    string          `json:"current_location" db:"current_location"`
	PickupLocation     string          `json:"pickup_location" db:"pickup_location"`
	DropoffLocation    string          `json:"dropoff_location" db:"dropoff_location"`
	CycleHoursUsed     float64         `json:"cycle_hours_used" db:"cycle_hours_used"`
	StartDate          string          `json:"start_date" db:"start_date"`
	Coordinates        TripCoordinates `json:"coordinates" db:"coordinates"`
	Route              RouteSummary    `json:"route" db:"route"`
	Plan               TripPlan        `json:"hos_plan" db:"plan"`
	Stops              []Stop          `json:"stops" db:"stops"`
	TotalDays          int             `json:"total_days" db:"total_days"`
	TotalDistanceMiles float64         `json:"total_distance_miles" db:"total_distance_miles"`
	CycleCompliant     bool            `json:"cycle_compliant" db:"cycle_compliant"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	Logs               []DailyLog      `json:"eld_logs,omitempty" db:"-"`
}

// TripSummary 行程列表项
type TripSummary struct {
	ID                 string    `json:"id"`
	PickupLocation     string    `json:"pickup_location"`
	DropoffLocation    string    `json:"dropoff_location"`
	TotalDays          int       `json:"total_days"`
	TotalDistanceMiles float64   `json:"total_distance_miles"`
	CycleCompliant     bool      `json:"cycle_compliant"`
	CreatedAt          time.Time `json:"created_at"`
}
