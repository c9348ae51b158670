package hos

import (
	"fmt"
	"math"
	"time"

	"github.com/langchou/eldplanner/internal/models"
)

// 违规描述，对外展示和导出依赖这些字符串
const (
	ViolationDailyDriving = "Daily driving limit exceeded"
	ViolationOnDutyWindow = "Daily on-duty window exceeded"
	ViolationBreak        = "Required 30-minute break not taken"
	ViolationCycle        = "70-hour cycle limit exceeded"
	ViolationRest         = "Insufficient rest period"
)

// RuleSet 载货司机 HOS 规则（70 小时 / 8 天）
type RuleSet struct {
	MaxDrivingPerDay  time.Duration // 每日驾驶上限
	MaxOnDutyWindow   time.Duration // 每日值班窗口
	BreakAfterDriving time.Duration // 连续驾驶多久必须休息
	BreakDuration     time.Duration // 休息时长
	RestBetweenDays   time.Duration // 两天之间的连续休息
	MaxCycleHours     float64       // 周期上限
	CycleDays         int

	FuelStopIntervalMiles float64
	FuelStopDuration      time.Duration
	PickupDuration        time.Duration
	DropoffDuration       time.Duration
	PreTripInspection     time.Duration
	DayStart              time.Duration // 每天开始值班的时刻

	BreakStatus models.DutyStatus // 30 分钟休息记录的状态
	RestStatus  models.DutyStatus // 非最后一天的 10 小时休息
}

// DefaultRules 默认规则
func DefaultRules() RuleSet {
	return RuleSet{
		MaxDrivingPerDay:      11 * time.Hour,
		MaxOnDutyWindow:       14 * time.Hour,
		BreakAfterDriving:     8 * time.Hour,
		BreakDuration:         30 * time.Minute,
		RestBetweenDays:       10 * time.Hour,
		MaxCycleHours:         70,
		CycleDays:             8,
		FuelStopIntervalMiles: 1000,
		FuelStopDuration:      30 * time.Minute,
		PickupDuration:        time.Hour,
		DropoffDuration:       time.Hour,
		PreTripInspection:     15 * time.Minute,
		BreakStatus:           models.StatusOnDutyNotDriving,
		RestStatus:            models.StatusOffDuty,
	}
}

// Validate 检查规则是否能排出可行的计划
func (r RuleSet) Validate() error {
	positive := []struct {
		name string
		d    time.Duration
	}{
		{"max driving per day", r.MaxDrivingPerDay},
		{"max on-duty window", r.MaxOnDutyWindow},
		{"break after driving", r.BreakAfterDriving},
		{"break duration", r.BreakDuration},
		{"rest between days", r.RestBetweenDays},
		{"fuel stop duration", r.FuelStopDuration},
	}
	for _, p := range positive {
		if p.d <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidInput, p.name)
		}
	}

	all := []time.Duration{
		r.MaxDrivingPerDay, r.MaxOnDutyWindow, r.BreakAfterDriving, r.BreakDuration,
		r.RestBetweenDays, r.FuelStopDuration, r.PickupDuration, r.DropoffDuration,
		r.PreTripInspection, r.DayStart,
	}
	for _, d := range all {
		if d < 0 || d%time.Minute != 0 {
			return fmt.Errorf("%w: duration %s must be a non-negative whole number of minutes", ErrInvalidInput, d)
		}
	}

	if r.MaxCycleHours <= 0 || r.CycleDays <= 0 {
		return fmt.Errorf("%w: cycle limits must be positive", ErrInvalidInput)
	}
	if r.FuelStopIntervalMiles <= 0 {
		return fmt.Errorf("%w: fuel stop interval must be positive", ErrInvalidInput)
	}
	if r.DayStart+r.MaxOnDutyWindow > 24*time.Hour {
		return fmt.Errorf("%w: day start %s plus window %s exceeds 24h", ErrInvalidInput, r.DayStart, r.MaxOnDutyWindow)
	}

	longest := r.FuelStopDuration
	for _, d := range []time.Duration{r.PickupDuration, r.DropoffDuration, r.BreakDuration} {
		if d > longest {
			longest = d
		}
	}
	if r.PreTripInspection+longest >= r.MaxOnDutyWindow {
		return fmt.Errorf("%w: fixed on-duty activities do not fit in the window", ErrInvalidInput)
	}

	if !r.BreakStatus.Valid() || r.BreakStatus == models.StatusDriving {
		return fmt.Errorf("%w: break status %q", ErrInvalidInput, r.BreakStatus)
	}
	if r.RestStatus != models.StatusOffDuty && r.RestStatus != models.StatusSleeperBerth {
		return fmt.Errorf("%w: rest status %q", ErrInvalidInput, r.RestStatus)
	}
	return nil
}

// DrivingExceeded 当日驾驶是否超限
func (r RuleSet) DrivingExceeded(driving time.Duration) bool {
	return driving > r.MaxDrivingPerDay
}

// WindowExceeded 值班窗口是否超限
func (r RuleSet) WindowExceeded(window time.Duration) bool {
	return window > r.MaxOnDutyWindow
}

// BreakRequired 连续驾驶是否已超过需要休息的时长
func (r RuleSet) BreakRequired(continuous time.Duration) bool {
	return continuous > r.BreakAfterDriving
}

// QualifiesAsBreak 非驾驶时段是否足以重置连续驾驶
func (r RuleSet) QualifiesAsBreak(nonDriving time.Duration) bool {
	return nonDriving >= r.BreakDuration
}

// QualifiesAsRest 休息是否足以重置每日计数
func (r RuleSet) QualifiesAsRest(rest time.Duration) bool {
	return rest >= r.RestBetweenDays
}

// CycleExceeded 周期累计小时是否超限
func (r RuleSet) CycleExceeded(cycleHours float64) bool {
	return cycleHours > r.MaxCycleHours+1e-9
}

// CycleRemaining 周期剩余小时，可能为负
func (r RuleSet) CycleRemaining(cycleHours float64) float64 {
	return r.MaxCycleHours - cycleHours
}

// FuelStopsBetween (from, to] 区间内跨过的加油阈值个数
func (r RuleSet) FuelStopsBetween(fromMiles, toMiles float64) int {
	if toMiles <= fromMiles || r.FuelStopIntervalMiles <= 0 {
		return 0
	}
	return int(math.Floor(toMiles/r.FuelStopIntervalMiles)) - int(math.Floor(fromMiles/r.FuelStopIntervalMiles))
}

func minutesOf(d time.Duration) int {
	return int(d / time.Minute)
}
