package hos

import (
	"math"
	"time"

	"github.com/langchou/eldplanner/internal/models"
)

// DateLayout 日志日期格式
const DateLayout = "2006-01-02"

// ToGrid 把单日计划量化为 96 格日志
// 每格取该格开始时刻生效的状态，格内发生的变化归到该格开始
func ToGrid(plan models.DailyPlan, date time.Time, meta models.LogMetadata, odometerStart float64) models.DailyLog {
	segs := SegmentsFromChanges(plan.DutyStatusChanges)
	grid, owner := quantize(segs)

	log := models.DailyLog{
		DayOfTrip:         plan.Day,
		Date:              date.Format(DateLayout),
		DriverName:        meta.DriverName,
		CarrierName:       meta.CarrierName,
		VehicleID:         meta.VehicleID,
		TrailerID:         meta.TrailerID,
		Grid:              grid,
		DutyStatusChanges: gridChanges(&grid, owner, segs),
		OdometerStart:     odometerStart,
		DistanceTraveled:  plan.DistanceMiles,
		OdometerEnd:       round1(odometerStart + plan.DistanceMiles),
		Violations:        append([]string{}, plan.Violations...),
	}
	fillTotals(&log)
	log.HOSCompliant = len(log.Violations) == 0
	return log
}

// quantize 每格取该格开始时刻生效的状态，owner 记录每格来自哪个区间
func quantize(segs []Segment) (models.Grid, []int) {
	var grid models.Grid
	owner := make([]int, SlotsPerDay)
	for i := range grid {
		grid[i] = models.StatusOffDuty
		owner[i] = -1
	}
	for idx, s := range segs {
		if s.Len() == 0 {
			continue
		}
		for i := SlotOf(s.Start); i < SlotsPerDay; i++ {
			grid[i] = s.Status
			owner[i] = idx
		}
	}
	return grid, owner
}

// gridDrivingMinutes 量化后日志上显示的驾驶分钟数
func gridDrivingMinutes(changes []models.DutyStatusChange) int {
	grid, _ := quantize(SegmentsFromChanges(changes))
	return grid.Count(models.StatusDriving) * SlotMinutes
}

// GenerateLogs 为整个计划生成日志，日期和里程表逐天递进，并带跨天上下文重新检查违规
func GenerateLogs(plan *models.TripPlan, startDate time.Time, meta models.LogMetadata, odometerStart float64, detector *Detector) []models.DailyLog {
	logs := make([]models.DailyLog, 0, len(plan.DailyPlans))
	odometer := odometerStart
	for i, day := range plan.DailyPlans {
		log := ToGrid(day, startDate.AddDate(0, 0, i), meta, odometer)
		odometer = log.OdometerEnd
		logs = append(logs, log)
	}
	if detector != nil {
		logs = detector.AnnotateLogs(logs, plan.CycleHoursUsed)
	}
	return logs
}

// RecomputeTotals 按格子重新计算外部日志的汇总
func RecomputeTotals(log models.DailyLog) models.DailyLog {
	fillTotals(&log)
	if len(log.DutyStatusChanges) == 0 {
		log.DutyStatusChanges = gridChanges(&log.Grid, nil, nil)
	}
	return log
}

func fillTotals(log *models.DailyLog) {
	log.TotalDriveTime = slotHours(log.Grid.Count(models.StatusDriving))
	log.TotalOnDutyTime = slotHours(log.Grid.Count(models.StatusOnDutyNotDriving))
	log.TotalOffDutyTime = slotHours(log.Grid.Count(models.StatusOffDuty))
	log.TotalSleeperBerthTime = slotHours(log.Grid.Count(models.StatusSleeperBerth))
}

// gridChanges 由格子反推状态变化，地点和备注取自产生该格的计划段
func gridChanges(grid *models.Grid, owner []int, segs []Segment) []models.DutyStatusChange {
	ownerAt := func(i int) int {
		if owner == nil {
			return -1
		}
		return owner[i]
	}

	var changes []models.DutyStatusChange
	for i := 0; i < SlotsPerDay; i++ {
		status := grid[i].Normalize()
		o := ownerAt(i)
		if n := len(changes); n > 0 && changes[n-1].Status == status && (i == 0 || ownerAt(i-1) == o) {
			changes[n-1].EndMinute = (i + 1) * SlotMinutes
			continue
		}

		c := models.DutyStatusChange{
			Time:        FormatSlot(i),
			StartMinute: i * SlotMinutes,
			EndMinute:   (i + 1) * SlotMinutes,
			Status:      status,
		}
		if o >= 0 {
			c.Location = segs[o].Location
			c.Notes = segs[o].Notes
		}
		changes = append(changes, c)
	}
	return changes
}

func slotHours(n int) float64 {
	return math.Round(float64(n)*SlotHours*100) / 100
}
