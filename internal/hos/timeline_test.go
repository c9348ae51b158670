package hos

import (
	"testing"

	"github.com/langchou/eldplanner/internal/models"
)

func TestDayBuilderRecordsTransitions(t *testing.T) {
	const (
		off = models.StatusOffDuty
		on  = models.StatusOnDutyNotDriving
		drv = models.StatusDriving
		sb  = models.StatusSleeperBerth
	)

	b := newDayBuilder()
	b.add(off, 0, "Home", noteOffDuty)
	b.add(on, 15, "Home", notePreTrip)
	b.add(drv, 60, locationEnRoute, noteDriving)
	b.add(drv, 30, locationEnRoute, noteDriving)
	b.add(on, 30, locationEnRoute, noteFuel)
	b.add(on, 60, "Dock 4", notePickup)
	b.add(sb, 600, locationEnRoute, noteRest)

	if got := b.machine.Current(); got != sb {
		t.Fatalf("machine state = %s, want %s", got, sb)
	}

	changes, err := b.finish(locationEnRoute)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}

	want := []struct {
		status     models.DutyStatus
		start, end int
		notes      string
	}{
		{on, 0, 15, notePreTrip},
		{drv, 15, 105, noteDriving},
		{on, 105, 135, noteFuel},
		{on, 135, 195, notePickup},
		{sb, 195, 795, noteRest},
		{off, 795, MinutesPerDay, noteOffDuty},
	}
	if len(changes) != len(want) {
		t.Fatalf("changes = %+v, want %d entries", changes, len(want))
	}
	for i, w := range want {
		c := changes[i]
		if c.Status != w.status || c.StartMinute != w.start || c.EndMinute != w.end || c.Notes != w.notes {
			t.Fatalf("change %d = %s [%d,%d) %q, want %s [%d,%d) %q",
				i, c.Status, c.StartMinute, c.EndMinute, c.Notes, w.status, w.start, w.end, w.notes)
		}
		if c.Time != FormatMinute(w.start) {
			t.Fatalf("change %d time = %q, want %q", i, c.Time, FormatMinute(w.start))
		}
	}
	assertContiguous(t, models.DailyPlan{Day: 1, DutyStatusChanges: changes})
}

func TestDayBuilderStartsWithOffDuty(t *testing.T) {
	b := newDayBuilder()
	b.add(models.StatusOffDuty, 360, "Home", noteOffDuty)
	b.add(models.StatusOnDutyNotDriving, 15, "Home", notePreTrip)

	changes, err := b.finish("Home")
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if len(changes) != 3 {
		t.Fatalf("changes = %+v, want 3 entries", changes)
	}
	if c := changes[0]; c.Status != models.StatusOffDuty || c.EndMinute != 360 {
		t.Fatalf("first change = %+v, want off_duty until 06:00", c)
	}
	if c := changes[1]; c.Status != models.StatusOnDutyNotDriving || c.StartMinute != 360 || c.Time != "06:00" {
		t.Fatalf("second change = %+v, want on_duty at 06:00", c)
	}
}

func TestDayBuilderRejectsOverflow(t *testing.T) {
	b := newDayBuilder()
	b.add(models.StatusDriving, MinutesPerDay-10, locationEnRoute, noteDriving)
	b.add(models.StatusOnDutyNotDriving, 30, locationEnRoute, noteDropoff)

	if _, err := b.finish(locationEnRoute); err == nil {
		t.Fatal("finish accepted activities past 24:00")
	}
}
