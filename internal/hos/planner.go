package hos

import (
	"fmt"
	"math"

	"github.com/langchou/eldplanner/internal/models"
)

// maxPlanDays 单次规划的天数上限
const maxPlanDays = 60

// PlanOptions 规划选项
type PlanOptions struct {
	PickupAfterHours float64 // 到达提货点前的驾驶小时（当前位置 → 提货点）
	CurrentLocation  string
	PickupLocation   string
	DropoffLocation  string
	StrictCycle      bool // 已用周期超过上限时直接拒绝
}

// Planner 行程分段规划器，无内部可变状态，可并发使用
type Planner struct {
	rules    RuleSet
	detector *Detector
}

// NewPlanner 创建规划器
func NewPlanner(rules RuleSet) (*Planner, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("validate rules: %w", err)
	}
	return &Planner{rules: rules, detector: NewDetector(rules)}, nil
}

// Rules 当前规则
func (p *Planner) Rules() RuleSet {
	return p.rules
}

// Detector 与规划器使用同一套规则的违规检查器
func (p *Planner) Detector() *Detector {
	return p.detector
}

// Plan 把整段行程拆分为按天的计划
func (p *Planner) Plan(route models.RouteSummary, cycleHoursUsed float64, opts PlanOptions) (*models.TripPlan, error) {
	if err := p.validate(route, cycleHoursUsed, opts); err != nil {
		return nil, err
	}

	totalDrive := int(math.Round(route.DurationHours * MinutesPerHour))

	switch {
	case cycleHoursUsed >= p.rules.MaxCycleHours:
		plan := p.minimalPlan(route, cycleHoursUsed, label(opts.CurrentLocation, "Current location"), noteCycleBlocked)
		plan.DrivingProhibited = true
		plan.Notes = append(plan.Notes, fmt.Sprintf("%.2f of %.0f cycle hours already used; no driving can be scheduled", cycleHoursUsed, p.rules.MaxCycleHours))
		return plan, nil

	case route.DistanceMiles == 0 && totalDrive == 0:
		return p.minimalPlan(route, cycleHoursUsed, label(opts.CurrentLocation, "Current location"), noteOffDuty), nil

	case route.DistanceMiles == 0 || totalDrive == 0:
		plan := p.minimalPlan(route, cycleHoursUsed, label(opts.CurrentLocation, "Current location"), noteOffDuty)
		plan.Degraded = true
		plan.Notes = append(plan.Notes, "route is missing distance or duration; returned a single off-duty day")
		return plan, nil
	}

	return p.simulate(route, totalDrive, cycleHoursUsed, opts)
}

func (p *Planner) validate(route models.RouteSummary, cycleHoursUsed float64, opts PlanOptions) error {
	values := []struct {
		name string
		v    float64
	}{
		{"distance_miles", route.DistanceMiles},
		{"duration_hours", route.DurationHours},
		{"cycle_hours_used", cycleHoursUsed},
		{"pickup offset", opts.PickupAfterHours},
	}
	for _, f := range values {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number, got %v", ErrInvalidInput, f.name, f.v)
		}
	}
	if opts.PickupAfterHours > route.DurationHours {
		return fmt.Errorf("%w: pickup offset %.2fh exceeds route duration %.2fh", ErrInvalidInput, opts.PickupAfterHours, route.DurationHours)
	}
	if opts.StrictCycle && cycleHoursUsed > p.rules.MaxCycleHours {
		return fmt.Errorf("%w: cycle_hours_used %.2f exceeds %.0f", ErrInvalidInput, cycleHoursUsed, p.rules.MaxCycleHours)
	}
	return nil
}

// minimalPlan 只有一天、全天 off_duty 的计划
func (p *Planner) minimalPlan(route models.RouteSummary, cycleHoursUsed float64, location, notes string) *models.TripPlan {
	b := newDayBuilder()
	b.add(models.StatusOffDuty, MinutesPerDay, location, notes)
	changes, _ := b.finish(location)

	day := models.DailyPlan{
		Day:               1,
		CycleHoursAtEnd:   cycleHoursUsed,
		DutyStatusChanges: changes,
	}
	day.Violations = p.detector.DetectPlan(day, cycleHoursUsed)

	return &models.TripPlan{
		Route:           route,
		DailyPlans:      []models.DailyPlan{day},
		TotalDaysNeeded: 1,
		CycleCompliant:  !p.rules.CycleExceeded(cycleHoursUsed),
		CycleHoursUsed:  cycleHoursUsed,
		CycleHoursAtEnd: cycleHoursUsed,
	}
}

// fuelMark 加油点：累计驾驶分钟与对应里程
type fuelMark struct {
	drive int
	miles float64
}

// fuelMarks 每跨过一个加油里程阈值记一次，按整刻对齐，终点处不加油
func (p *Planner) fuelMarks(distance float64, totalDrive int) []fuelMark {
	var marks []fuelMark
	last := 0
	for k := 1; ; k++ {
		miles := float64(k) * p.rules.FuelStopIntervalMiles
		if miles >= distance {
			break
		}
		at := roundSlot(int(math.Round(miles / distance * float64(totalDrive))))
		if at <= last || at >= totalDrive {
			continue
		}
		marks = append(marks, fuelMark{drive: at, miles: miles})
		last = at
	}
	return marks
}

// simulate 按天推进模拟时钟
func (p *Planner) simulate(route models.RouteSummary, totalDrive int, cycleHoursUsed float64, opts PlanOptions) (*models.TripPlan, error) {
	r := p.rules

	var (
		dayStart   = minutesOf(r.DayStart)
		windowEnd  = dayStart + minutesOf(r.MaxOnDutyWindow)
		maxDrive   = minutesOf(r.MaxDrivingPerDay)
		breakAfter = minutesOf(r.BreakAfterDriving)
		breakLen   = minutesOf(r.BreakDuration)
		restLen    = minutesOf(r.RestBetweenDays)
		fuelLen    = minutesOf(r.FuelStopDuration)
		pickupLen  = minutesOf(r.PickupDuration)
		dropoffLen = minutesOf(r.DropoffDuration)
		preTrip    = minutesOf(r.PreTripInspection)
		maxCycle   = r.MaxCycleHours * MinutesPerHour
	)

	currentLoc := label(opts.CurrentLocation, "Current location")
	pickupLoc := label(opts.PickupLocation, "Pickup location")
	dropoffLoc := label(opts.DropoffLocation, "Dropoff location")

	pickupAt := roundSlot(int(math.Round(opts.PickupAfterHours * MinutesPerHour)))
	if pickupAt > totalDrive {
		pickupAt = totalDrive
	}
	marks := p.fuelMarks(route.DistanceMiles, totalDrive)

	var (
		driven       int
		nextFuel     int
		pickupDone   bool
		dropoffDone  bool
		fuelPending  bool
		cycleMinutes = cycleHoursUsed * MinutesPerHour
		compliant    = true
		overCycleDay int
		days         []models.DailyPlan
		driveByDay   []int
		totalOnDuty  int
	)

	for day := 1; !dropoffDone; day++ {
		if day > maxPlanDays {
			return nil, fmt.Errorf("%w: trip needs more than %d days", ErrPlanTooLong, maxPlanDays)
		}

		startLoc := locationEnRoute
		if day == 1 {
			startLoc = currentLoc
		}

		b := newDayBuilder()
		b.add(models.StatusOffDuty, dayStart, startLoc, noteOffDuty)
		b.add(models.StatusOnDutyNotDriving, preTrip, startLoc, notePreTrip)

		// 周期余量为正时限制当天驾驶，用尽后仍按每日上限排班并记违规
		driveCap := maxDrive
		budget := maxCycle - cycleMinutes
		if c := floorSlot(int(math.Floor(budget))); budget > 0 && c < driveCap {
			driveCap = c
		}
		if day > 1 && (budget <= 0 || driveCap == 0) {
			driveCap = maxDrive
			if overCycleDay == 0 {
				overCycleDay = day
			}
		}

		var (
			dayDrive   int
			sinceBreak int
			fuelCount  int
			breaks     int
			fuelMiles  []float64
		)
		fits := func(m int) bool { return b.clock+m <= windowEnd }

	activity:
		for {
			switch {
			case fuelPending:
				if !fits(fuelLen) {
					break activity
				}
				b.add(models.StatusOnDutyNotDriving, fuelLen, locationEnRoute, noteFuel)
				fuelCount++
				fuelMiles = append(fuelMiles, marks[nextFuel-1].miles)
				fuelPending = false
				if r.QualifiesAsBreak(r.FuelStopDuration) {
					sinceBreak = 0
				}

			case !pickupDone && driven >= pickupAt:
				if !fits(pickupLen) {
					break activity
				}
				b.add(models.StatusOnDutyNotDriving, pickupLen, pickupLoc, notePickup)
				pickupDone = true
				if r.QualifiesAsBreak(r.PickupDuration) {
					sinceBreak = 0
				}

			case driven >= totalDrive:
				if !fits(dropoffLen) {
					break activity
				}
				b.add(models.StatusOnDutyNotDriving, dropoffLen, dropoffLoc, noteDropoff)
				dropoffDone = true
				break activity

			case sinceBreak >= breakAfter && dayDrive < driveCap:
				if !fits(breakLen + SlotMinutes) {
					break activity
				}
				b.add(r.BreakStatus, breakLen, locationEnRoute, noteBreak)
				breaks++
				sinceBreak = 0

			default:
				chunk := min(totalDrive-driven, driveCap-dayDrive, breakAfter-sinceBreak, windowEnd-b.clock)
				if !pickupDone {
					chunk = min(chunk, pickupAt-driven)
				}
				if nextFuel < len(marks) {
					chunk = min(chunk, marks[nextFuel].drive-driven)
				}
				if chunk <= 0 {
					break activity
				}
				b.add(models.StatusDriving, chunk, locationEnRoute, noteDriving)
				driven += chunk
				dayDrive += chunk
				sinceBreak += chunk
				if nextFuel < len(marks) && driven == marks[nextFuel].drive {
					nextFuel++
					fuelPending = true
				}
			}
		}

		restLoc, restStatus, restNote := locationEnRoute, r.RestStatus, noteRest
		if dropoffDone {
			restLoc, restStatus, restNote = dropoffLoc, models.StatusOffDuty, noteOffDuty
		}
		b.add(restStatus, min(restLen, MinutesPerDay-b.clock), restLoc, restNote)

		onDuty := b.onDutyMinutes()
		changes, err := b.finish(restLoc)
		if err != nil {
			return nil, fmt.Errorf("build day %d: %w", day, err)
		}

		cycleMinutes += float64(onDuty)
		if cycleMinutes > maxCycle+1e-6 {
			compliant = false
		}
		totalOnDuty += onDuty

		days = append(days, models.DailyPlan{
			Day:               day,
			DrivingHours:      hours(dayDrive),
			OnDutyHours:       hours(onDuty),
			FuelStops:         fuelCount,
			FuelStopMiles:     fuelMiles,
			MandatoryBreaks:   breaks,
			CycleHoursAtEnd:   cycleMinutes / MinutesPerHour,
			DutyStatusChanges: changes,
		})
		driveByDay = append(driveByDay, dayDrive)
	}

	apportion(days, driveByDay, route.DistanceMiles, totalDrive)

	violations := p.detector.DetectPlans(days, cycleHoursUsed)
	for i := range days {
		days[i].Violations = violations[i]
	}

	plan := &models.TripPlan{
		Route:             route,
		DailyPlans:        days,
		TotalDaysNeeded:   len(days),
		CycleCompliant:    compliant,
		CycleHoursUsed:    cycleHoursUsed,
		CycleHoursAtEnd:   cycleMinutes / MinutesPerHour,
		TotalDrivingHours: hours(totalDrive),
		TotalOnDutyHours:  hours(totalOnDuty),
	}
	if !compliant {
		plan.Notes = append(plan.Notes, fmt.Sprintf("trip exceeds the %.0f-hour cycle; plan ends with %.2f cycle hours", r.MaxCycleHours, plan.CycleHoursAtEnd))
	}
	if overCycleDay > 0 {
		plan.Notes = append(plan.Notes, fmt.Sprintf("cycle budget exhausted before day %d; remaining driving is scheduled over the limit", overCycleDay))
	}
	for i, day := range days {
		if drift := driveByDay[i] - gridDrivingMinutes(day.DutyStatusChanges); drift != 0 {
			plan.Notes = append(plan.Notes, gridDriftNote(day.Day, drift))
		}
	}
	return plan, nil
}

// gridDriftNote 日志格子与计划驾驶分钟数不一致时的说明，drift 为计划减去格子
func gridDriftNote(day, drift int) string {
	word := "fewer"
	if drift < 0 {
		word, drift = "more", -drift
	}
	return fmt.Sprintf("day %d: log grid shows %d %s driving minutes than scheduled (15-minute slots)", day, drift, word)
}

// apportion 按驾驶时间比例分配每天的里程，四舍五入的余数归最后一天
func apportion(days []models.DailyPlan, driveByDay []int, distance float64, totalDrive int) {
	cum := 0.0
	for i := range days {
		days[i].StartMiles = round1(cum)
		if i == len(days)-1 {
			days[i].DistanceMiles = math.Round((distance-cum)*1e9) / 1e9
		} else {
			days[i].DistanceMiles = round1(distance * float64(driveByDay[i]) / float64(totalDrive))
		}
		cum += days[i].DistanceMiles
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func label(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
