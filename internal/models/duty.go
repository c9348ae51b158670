package models

import (
	"encoding/json"
	"fmt"
)

// DutyStatus 值班状态
type DutyStatus string

// 四种值班状态，对应日志表的四行
const (
	StatusOffDuty          DutyStatus = "off_duty"
	StatusSleeperBerth     DutyStatus = "sleeper_berth"
	StatusDriving          DutyStatus = "driving"
	StatusOnDutyNotDriving DutyStatus = "on_duty_not_driving"
)

// SlotsPerDay 每天的日志格数（每格 15 分钟）
const SlotsPerDay = 96

// DutyStatuses 按日志表行顺序排列
var DutyStatuses = []DutyStatus{
	StatusOffDuty,
	StatusSleeperBerth,
	StatusDriving,
	StatusOnDutyNotDriving,
}

// Valid 是否为已知状态
func (s DutyStatus) Valid() bool {
	switch s {
	case StatusOffDuty, StatusSleeperBerth, StatusDriving, StatusOnDutyNotDriving:
		return true
	}
	return false
}

// OnDuty 驾驶或值班（非驾驶）都计入值班时间
func (s DutyStatus) OnDuty() bool {
	return s == StatusDriving || s == StatusOnDutyNotDriving
}

// Normalize 未知状态回退为 off_duty
func (s DutyStatus) Normalize() DutyStatus {
	if s.Valid() {
		return s
	}
	return StatusOffDuty
}

// DutyStatusChange 一段连续的值班状态
type DutyStatusChange struct {
	Time        string     `json:"time"`         // 开始时间 HH:MM
	StartMinute int        `json:"start_minute"` // 当天第几分钟开始
	EndMinute   int        `json:"end_minute"`   // 当天第几分钟结束（不含）
	Status      DutyStatus `json:"status"`
	Location    string     `json:"location"`
	Notes       string     `json:"notes"`
}

// Minutes 持续分钟数
func (c DutyStatusChange) Minutes() int {
	return c.EndMinute - c.StartMinute
}

// Grid 一天 96 格的状态表，下标 0 = 00:00-00:15
type Grid [SlotsPerDay]DutyStatus

// UnmarshalJSON 要求正好 96 格，未知状态回退为 off_duty
func (g *Grid) UnmarshalJSON(data []byte) error {
	var raw []DutyStatus
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode grid: %w", err)
	}
	if len(raw) != SlotsPerDay {
		return fmt.Errorf("grid has %d slots, want %d", len(raw), SlotsPerDay)
	}
	for i, s := range raw {
		g[i] = s.Normalize()
	}
	return nil
}

// Count 统计某状态的格数
func (g *Grid) Count(status DutyStatus) int {
	n := 0
	for _, s := range g {
		if s.Normalize() == status {
			n++
		}
	}
	return n
}
