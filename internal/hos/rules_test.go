package hos

import (
	"errors"
	"testing"
	"time"

	"github.com/langchou/eldplanner/internal/models"
)

func TestDefaultRulesValid(t *testing.T) {
	if err := DefaultRules().Validate(); err != nil {
		t.Fatalf("default rules invalid: %v", err)
	}
}

func TestRulesValidateRejects(t *testing.T) {
	cases := map[string]func(r *RuleSet){
		"zero driving":     func(r *RuleSet) { r.MaxDrivingPerDay = 0 },
		"late day start":   func(r *RuleSet) { r.DayStart = 11 * time.Hour },
		"driving as rest":  func(r *RuleSet) { r.RestStatus = models.StatusDriving },
		"driving as break": func(r *RuleSet) { r.BreakStatus = models.StatusDriving },
		"seconds":          func(r *RuleSet) { r.PickupDuration = 90 * time.Second },
		"no fuel interval": func(r *RuleSet) { r.FuelStopIntervalMiles = 0 },
	}
	for name, mutate := range cases {
		r := DefaultRules()
		mutate(&r)
		err := r.Validate()
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: err = %v, want ErrInvalidInput", name, err)
		}
	}
}

func TestRulePredicates(t *testing.T) {
	r := DefaultRules()

	if r.DrivingExceeded(11 * time.Hour) {
		t.Fatalf("11h driving should be within limit")
	}
	if !r.DrivingExceeded(11*time.Hour + time.Minute) {
		t.Fatalf("11h01m driving should exceed limit")
	}
	if r.WindowExceeded(14 * time.Hour) {
		t.Fatalf("14h window should be within limit")
	}
	if r.BreakRequired(8 * time.Hour) {
		t.Fatalf("8h continuous driving should not require a break yet")
	}
	if !r.QualifiesAsBreak(30*time.Minute) || r.QualifiesAsBreak(29*time.Minute) {
		t.Fatalf("break threshold should be 30 minutes")
	}
	if !r.QualifiesAsRest(10*time.Hour) || r.QualifiesAsRest(9*time.Hour) {
		t.Fatalf("rest threshold should be 10 hours")
	}
	if r.CycleExceeded(70) || !r.CycleExceeded(70.25) {
		t.Fatalf("cycle threshold should be 70 hours")
	}
	if got := r.CycleRemaining(68); got != 2 {
		t.Fatalf("CycleRemaining(68) = %v, want 2", got)
	}
}

func TestFuelStopsBetween(t *testing.T) {
	r := DefaultRules()
	cases := []struct {
		from, to float64
		want     int
	}{
		{0, 500, 0},
		{900, 1100, 1},
		{0, 2400, 2},
		{1000, 1000, 0},
		{2500, 1000, 0},
	}
	for _, c := range cases {
		if got := r.FuelStopsBetween(c.from, c.to); got != c.want {
			t.Fatalf("FuelStopsBetween(%v, %v) = %d, want %d", c.from, c.to, got, c.want)
		}
	}
}
