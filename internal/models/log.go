package models

// LogMetadata 日志表头信息，原样透传到每天的日志
type LogMetadata struct {
	DriverName  string `json:"driver_name"`
	CarrierName string `json:"carrier_name"`
	VehicleID   string `json:"vehicle_id"`
	TrailerID   string `json:"trailer_id"`
}

// DailyLog 单日 ELD 日志
type DailyLog struct {
	DayOfTrip             int                `json:"day_of_trip"`
	Date                  string             `json:"date"` // YYYY-MM-DD
	DriverName            string             `json:"driver_name"`
	CarrierName           string             `json:"carrier_name"`
	VehicleID             string             `json:"vehicle_id"`
	TrailerID             string             `json:"trailer_id"`
	Grid                  Grid               `json:"grid"`
	DutyStatusChanges     []DutyStatusChange `json:"duty_status_changes"`
	TotalDriveTime        float64            `json:"total_drive_time"`
	TotalOnDutyTime       float64            `json:"total_on_duty_time"` // 值班（非驾驶）
	TotalOffDutyTime      float64            `json:"total_off_duty_time"`
	TotalSleeperBerthTime float64            `json:"total_sleeper_berth_time"`
	OdometerStart         float64            `json:"odometer_start"`
	OdometerEnd           float64            `json:"odometer_end"`
	DistanceTraveled      float64            `json:"distance_traveled"`
	Violations            []string           `json:"violations"`
	HOSCompliant          bool               `json:"hos_compliant"`
}

// Metadata 取出表头信息
func (l DailyLog) Metadata() LogMetadata {
	return LogMetadata{
		DriverName:  l.DriverName,
		CarrierName: l.CarrierName,
		VehicleID:   l.VehicleID,
		TrailerID:   l.TrailerID,
	}
}

// GenerateLogsRequest 根据已有计划生成日志
type GenerateLogsRequest struct {
	TripPlan *TripPlan `json:"trip_plan"`
	LogMetadata
	StartDate     string   `json:"start_date"`
	OdometerStart *float64 `json:"odometer_start,omitempty"`
}

// ValidateLogsRequest 检查外部提交的日志
type ValidateLogsRequest struct {
	DailyLogs      []DailyLog `json:"daily_logs"`
	CycleHoursUsed float64    `json:"cycle_hours_used"`
}
