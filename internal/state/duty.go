package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/langchou/eldplanner/internal/models"
)

// 事件常量，每个目标状态一个事件
const (
	EventStartDriving      = "start_driving"
	EventGoOnDuty          = "go_on_duty"
	EventGoOffDuty         = "go_off_duty"
	EventEnterSleeperBerth = "enter_sleeper_berth"
)

var allStates = []string{
	string(models.StatusOffDuty),
	string(models.StatusSleeperBerth),
	string(models.StatusDriving),
	string(models.StatusOnDutyNotDriving),
}

// EventFor 返回进入某状态的事件
func EventFor(status models.DutyStatus) (string, error) {
	switch status {
	case models.StatusDriving:
		return EventStartDriving, nil
	case models.StatusOnDutyNotDriving:
		return EventGoOnDuty, nil
	case models.StatusOffDuty:
		return EventGoOffDuty, nil
	case models.StatusSleeperBerth:
		return EventEnterSleeperBerth, nil
	}
	return "", fmt.Errorf("unknown duty status %q", status)
}

// Machine 值班状态机
// 非并发安全，每条时间线各用一个
type Machine struct {
	fsm      *fsm.FSM
	onChange func(from, to models.DutyStatus)
}

// NewMachine 创建状态机，initial 为空时从 off_duty 开始
func NewMachine(initial models.DutyStatus, onChange func(from, to models.DutyStatus)) *Machine {
	if !initial.Valid() {
		initial = models.StatusOffDuty
	}

	m := &Machine{onChange: onChange}
	m.fsm = fsm.NewFSM(
		string(initial),
		fsm.Events{
			{Name: EventStartDriving, Src: allStates, Dst: string(models.StatusDriving)},
			{Name: EventGoOnDuty, Src: allStates, Dst: string(models.StatusOnDutyNotDriving)},
			{Name: EventGoOffDuty, Src: allStates, Dst: string(models.StatusOffDuty)},
			{Name: EventEnterSleeperBerth, Src: allStates, Dst: string(models.StatusSleeperBerth)},
		},
		fsm.Callbacks{
			// enter_state 只在状态真正变化时触发
			"enter_state": func(_ context.Context, e *fsm.Event) {
				if m.onChange != nil {
					m.onChange(models.DutyStatus(e.Src), models.DutyStatus(e.Dst))
				}
			},
		},
	)
	return m
}

// Current 当前状态
func (m *Machine) Current() models.DutyStatus {
	return models.DutyStatus(m.fsm.Current())
}

// Transition 切换到目标状态，状态未变化时 changed 为 false
func (m *Machine) Transition(to models.DutyStatus) (bool, error) {
	event, err := EventFor(to)
	if err != nil {
		return false, err
	}

	if err := m.fsm.Event(context.Background(), event); err != nil {
		var noTransition fsm.NoTransitionError
		if errors.As(err, &noTransition) {
			return false, nil
		}
		return false, fmt.Errorf("trigger event %s: %w", event, err)
	}
	return true, nil
}

// CanTransition 检查是否可以切换
func (m *Machine) CanTransition(to models.DutyStatus) bool {
	event, err := EventFor(to)
	if err != nil {
		return false
	}
	return m.fsm.Can(event)
}
