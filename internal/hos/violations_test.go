package hos

import (
	"reflect"
	"testing"
	"time"

	"github.com/langchou/eldplanner/internal/models"
)

type seg struct {
	status  models.DutyStatus
	minutes int
}

const (
	off  = models.StatusOffDuty
	sb   = models.StatusSleeperBerth
	drv  = models.StatusDriving
	duty = models.StatusOnDutyNotDriving
)

// dayOf 按顺序拼接状态段，剩余时间补 off_duty
func dayOf(n int, segs ...seg) models.DailyPlan {
	var changes []models.DutyStatusChange
	clock := 0
	driving := 0
	for _, s := range segs {
		changes = append(changes, models.DutyStatusChange{
			Time:        FormatMinute(clock),
			StartMinute: clock,
			EndMinute:   clock + s.minutes,
			Status:      s.status,
		})
		if s.status == drv {
			driving += s.minutes
		}
		clock += s.minutes
	}
	if clock < MinutesPerDay {
		changes = append(changes, models.DutyStatusChange{
			Time:        FormatMinute(clock),
			StartMinute: clock,
			EndMinute:   MinutesPerDay,
			Status:      off,
		})
	}
	return models.DailyPlan{Day: n, DrivingHours: hours(driving), DutyStatusChanges: changes}
}

func TestDetectorChecks(t *testing.T) {
	d := NewDetector(DefaultRules())

	cases := []struct {
		name string
		day  models.DailyPlan
		want []string
	}{
		{
			name: "compliant",
			day:  dayOf(1, seg{duty, 15}, seg{drv, 480}, seg{duty, 30}, seg{drv, 180}),
			want: []string{},
		},
		{
			name: "twelve hours driving with break",
			day:  dayOf(1, seg{drv, 480}, seg{duty, 30}, seg{drv, 240}),
			want: []string{ViolationDailyDriving},
		},
		{
			name: "no break after eight hours",
			day:  dayOf(1, seg{drv, 540}),
			want: []string{ViolationBreak},
		},
		{
			name: "short stop does not reset break",
			day:  dayOf(1, seg{drv, 300}, seg{duty, 15}, seg{off, 10}, seg{drv, 200}),
			want: []string{ViolationBreak},
		},
		{
			name: "off duty break resets counter",
			day:  dayOf(1, seg{drv, 300}, seg{off, 15}, seg{duty, 15}, seg{drv, 300}),
			want: []string{},
		},
		{
			name: "window exceeded",
			day:  dayOf(1, seg{duty, 300}, seg{drv, 480}, seg{duty, 30}, seg{drv, 120}),
			want: []string{ViolationOnDutyWindow},
		},
		{
			name: "several rules at once",
			day:  dayOf(1, seg{drv, 720}),
			want: []string{ViolationDailyDriving, ViolationBreak},
		},
		{
			name: "long rest splits duty periods",
			day:  dayOf(1, seg{duty, 240}, seg{sb, 600}, seg{drv, 300}),
			want: []string{},
		},
	}

	for _, c := range cases {
		got := d.DetectPlan(c.day, 0)
		if !reflect.DeepEqual(got, c.want) {
			t.Fatalf("%s: violations = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestDetectorDeclaredDriving(t *testing.T) {
	day := dayOf(1, seg{drv, 300})
	day.DrivingHours = 11.5

	got := NewDetector(DefaultRules()).DetectPlan(day, 0)
	if !reflect.DeepEqual(got, []string{ViolationDailyDriving}) {
		t.Fatalf("violations = %v", got)
	}
}

func TestDetectorCycle(t *testing.T) {
	d := NewDetector(DefaultRules())
	day := dayOf(1, seg{duty, 60}, seg{drv, 240})

	if got := d.DetectPlan(day, 65); len(got) != 0 {
		t.Fatalf("65 + 5 should be within cycle, got %v", got)
	}
	if got := d.DetectPlan(day, 66); !reflect.DeepEqual(got, []string{ViolationCycle}) {
		t.Fatalf("66 + 5 violations = %v", got)
	}
}

func TestDetectPlansCarriesRestAndCycle(t *testing.T) {
	d := NewDetector(DefaultRules())
	days := []models.DailyPlan{
		dayOf(1, seg{off, 600}, seg{duty, 60}, seg{drv, 480}, seg{duty, 30}, seg{drv, 180}, seg{duty, 60}),
		dayOf(2, seg{off, 300}, seg{drv, 300}),
	}

	got := d.DetectPlans(days, 0)
	if len(got[0]) != 0 {
		t.Fatalf("day 1 violations = %v", got[0])
	}
	if !reflect.DeepEqual(got[1], []string{ViolationRest}) {
		t.Fatalf("day 2 violations = %v, want rest", got[1])
	}

	// 13.5h on day 1 + 5h on day 2 from 52 crosses 70 only on day 2
	got = d.DetectPlans(days, 52)
	if len(got[0]) != 0 {
		t.Fatalf("day 1 violations = %v", got[0])
	}
	if !reflect.DeepEqual(got[1], []string{ViolationCycle, ViolationRest}) {
		t.Fatalf("day 2 violations = %v", got[1])
	}
}

func TestDetectPlansSkipsIdleDay(t *testing.T) {
	d := NewDetector(DefaultRules())
	days := []models.DailyPlan{
		dayOf(1, seg{off, 600}, seg{drv, 480}, seg{duty, 60}, seg{drv, 120}, seg{off, 180}),
		dayOf(2),
		dayOf(3, seg{drv, 120}),
	}
	got := d.DetectPlans(days, 0)
	for i, v := range got {
		if len(v) != 0 {
			t.Fatalf("day %d violations = %v", i+1, v)
		}
	}
}

func TestDetectLogFromGrid(t *testing.T) {
	d := NewDetector(DefaultRules())
	day := dayOf(1, seg{drv, 480}, seg{duty, 30}, seg{drv, 240})
	log := ToGrid(day, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), models.LogMetadata{}, 0)

	got := d.DetectLog(log, 0)
	if !reflect.DeepEqual(got, []string{ViolationDailyDriving}) {
		t.Fatalf("violations = %v", got)
	}

	annotated := d.AnnotateLogs([]models.DailyLog{log}, 0)
	if annotated[0].HOSCompliant || len(annotated[0].Violations) != 1 {
		t.Fatalf("annotated log = %+v", annotated[0].Violations)
	}
	if log.Violations == nil || len(log.Violations) != 0 {
		t.Fatalf("AnnotateLogs must not modify its input")
	}
}

func TestDetectorCustomChecks(t *testing.T) {
	d := NewDetector(DefaultRules(), CheckCycle)
	day := dayOf(1, seg{drv, 720})

	if got := d.DetectPlan(day, 0); len(got) != 0 {
		t.Fatalf("cycle-only detector reported %v", got)
	}
	if got := d.DetectPlan(day, 60); !reflect.DeepEqual(got, []string{ViolationCycle}) {
		t.Fatalf("violations = %v", got)
	}
}

func TestSegmentsFromChangesUsesTimeLabels(t *testing.T) {
	changes := []models.DutyStatusChange{
		{Time: "06:00", Status: drv},
		{Time: "00:00", Status: off},
		{Time: "14:00", Status: "unknown"},
	}
	segs := SegmentsFromChanges(changes)
	if len(segs) != 3 {
		t.Fatalf("segments = %d", len(segs))
	}
	if segs[0].Status != off || segs[0].End != 360 {
		t.Fatalf("first segment = %+v", segs[0])
	}
	if segs[1].Status != drv || segs[1].Len() != 480 {
		t.Fatalf("driving segment = %+v", segs[1])
	}
	if segs[2].Status != off || segs[2].End != MinutesPerDay {
		t.Fatalf("last segment = %+v", segs[2])
	}
}
