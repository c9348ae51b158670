package hos

import "testing"

func TestSlotTimeBijection(t *testing.T) {
	seen := make(map[[2]int]bool)
	for slot := 0; slot < SlotsPerDay; slot++ {
		h, m := SlotToTime(slot)
		if seen[[2]int{h, m}] {
			t.Fatalf("slot %d maps to duplicate time %02d:%02d", slot, h, m)
		}
		seen[[2]int{h, m}] = true

		back, err := TimeToSlot(h, m)
		if err != nil {
			t.Fatalf("TimeToSlot(%d, %d) error: %v", h, m, err)
		}
		if back != slot {
			t.Fatalf("TimeToSlot(SlotToTime(%d)) = %d", slot, back)
		}
	}
	if len(seen) != SlotsPerDay {
		t.Fatalf("distinct times = %d, want %d", len(seen), SlotsPerDay)
	}
}

func TestTimeToSlotRejectsInvalid(t *testing.T) {
	cases := [][2]int{{10, 7}, {24, 0}, {-1, 0}, {3, 60}}
	for _, c := range cases {
		if _, err := TimeToSlot(c[0], c[1]); err == nil {
			t.Fatalf("TimeToSlot(%d, %d) expected error", c[0], c[1])
		}
	}
}

func TestFormatAndParseClock(t *testing.T) {
	if got := FormatMinute(MinutesPerDay); got != "24:00" {
		t.Fatalf("FormatMinute(1440) = %s", got)
	}
	if got := FormatMinute(75); got != "01:15" {
		t.Fatalf("FormatMinute(75) = %s", got)
	}
	if got := FormatSlot(95); got != "23:45" {
		t.Fatalf("FormatSlot(95) = %s", got)
	}

	cases := map[string]int{"00:00": 0, "06:30": 390, "24:00": 1440, "13:05": 785}
	for in, want := range cases {
		got, err := ParseClock(in)
		if err != nil {
			t.Fatalf("ParseClock(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseClock(%q) = %d, want %d", in, got, want)
		}
	}
	for _, bad := range []string{"24:30", "7am", "25:00"} {
		if _, err := ParseClock(bad); err == nil {
			t.Fatalf("ParseClock(%q) expected error", bad)
		}
	}
}

func TestSlotOfFloors(t *testing.T) {
	cases := map[int]int{0: 0, 14: 0, 15: 1, 29: 1, 30: 2, 1439: 95, 1440: 96}
	for m, want := range cases {
		if got := SlotOf(m); got != want {
			t.Fatalf("SlotOf(%d) = %d, want %d", m, got, want)
		}
	}
}
