package hos

import (
	"fmt"

	"github.com/langchou/eldplanner/internal/models"
)

// 时钟常量，引擎内部以“当天第几分钟”计时
const (
	MinutesPerHour = 60
	MinutesPerDay  = 24 * MinutesPerHour
	SlotMinutes    = 15
	SlotsPerDay    = models.SlotsPerDay
	SlotHours      = float64(SlotMinutes) / MinutesPerHour
)

// Span 半开区间 [Start, End)，单位分钟
type Span struct {
	Start int
	End   int
}

// Len 区间长度
func (s Span) Len() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// SlotToTime 格子下标转为时:分
func SlotToTime(slot int) (hour, minute int) {
	return slot / 4, (slot % 4) * SlotMinutes
}

// TimeToSlot 时:分转为格子下标，分钟必须是整刻
func TimeToSlot(hour, minute int) (int, error) {
	if hour < 0 || hour > 23 {
		return 0, fmt.Errorf("hour %d out of range", hour)
	}
	if minute < 0 || minute > 59 || minute%SlotMinutes != 0 {
		return 0, fmt.Errorf("minute %d is not a quarter hour", minute)
	}
	return hour*4 + minute/SlotMinutes, nil
}

// SlotOf 某分钟所在的格子（向下取整）
func SlotOf(minute int) int {
	if minute <= 0 {
		return 0
	}
	if minute >= MinutesPerDay {
		return SlotsPerDay
	}
	return minute / SlotMinutes
}

// FormatMinute 分钟格式化为 HH:MM，1440 显示为 24:00
func FormatMinute(m int) string {
	if m < 0 {
		m = 0
	}
	if m > MinutesPerDay {
		m = MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", m/MinutesPerHour, m%MinutesPerHour)
}

// FormatSlot 格子开始时间 HH:MM
func FormatSlot(slot int) string {
	h, m := SlotToTime(slot)
	return fmt.Sprintf("%02d:%02d", h, m)
}

// ParseClock 解析 HH:MM，允许 24:00
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("clock %q out of range", s)
	}
	return h*MinutesPerHour + m, nil
}

// floorSlot 向下对齐到整刻
func floorSlot(minutes int) int {
	return minutes - minutes%SlotMinutes
}

// roundSlot 四舍五入到整刻
func roundSlot(minutes int) int {
	return (minutes + SlotMinutes/2) / SlotMinutes * SlotMinutes
}

func hours(minutes int) float64 {
	return float64(minutes) / MinutesPerHour
}
