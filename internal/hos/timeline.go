package hos

import (
	"fmt"

	"github.com/langchou/eldplanner/internal/models"
	"github.com/langchou/eldplanner/internal/state"
)

// dayBuilder 按时间顺序累积一天的状态段
// 状态切换由状态机回调记录，finish 之后结果不再改动
type dayBuilder struct {
	machine *state.Machine
	changes []models.DutyStatusChange
	clock   int
	err     error

	// 下一段的地点和备注，供状态机回调使用
	location string
	notes    string
}

func newDayBuilder() *dayBuilder {
	b := &dayBuilder{}
	b.machine = state.NewMachine(models.StatusOffDuty, b.onTransition)
	return b
}

// onTransition 状态机进入新状态时开一段空的状态变化
func (b *dayBuilder) onTransition(_, to models.DutyStatus) {
	b.open(to)
}

func (b *dayBuilder) open(status models.DutyStatus) {
	b.changes = append(b.changes, models.DutyStatusChange{
		Time:        FormatMinute(b.clock),
		StartMinute: b.clock,
		EndMinute:   b.clock,
		Status:      status,
		Location:    b.location,
		Notes:       b.notes,
	})
}

// add 追加一段状态；与上一段状态、地点、备注都相同时合并
func (b *dayBuilder) add(status models.DutyStatus, minutes int, location, notes string) {
	if b.err != nil || minutes <= 0 {
		return
	}
	if b.clock+minutes > MinutesPerDay {
		b.err = fmt.Errorf("activity %q ends after 24:00", notes)
		return
	}

	b.location, b.notes = location, notes
	changed, err := b.machine.Transition(status)
	if err != nil {
		b.err = err
		return
	}

	// 状态未变，但地点或备注不同时另起一段
	if !changed {
		n := len(b.changes)
		if n == 0 || b.changes[n-1].Location != location || b.changes[n-1].Notes != notes {
			b.open(status)
		}
	}

	b.changes[len(b.changes)-1].EndMinute += minutes
	b.clock += minutes
}

// onDutyMinutes 当天驾驶 + 值班分钟数
func (b *dayBuilder) onDutyMinutes() int {
	total := 0
	for _, c := range b.changes {
		if c.Status.OnDuty() {
			total += c.Minutes()
		}
	}
	return total
}

// finish 用 off_duty 补满 24 小时并返回结果
func (b *dayBuilder) finish(location string) ([]models.DutyStatusChange, error) {
	if b.clock < MinutesPerDay {
		b.add(models.StatusOffDuty, MinutesPerDay-b.clock, location, noteOffDuty)
	}
	if b.err != nil {
		return nil, b.err
	}
	out := make([]models.DutyStatusChange, len(b.changes))
	copy(out, b.changes)
	return out, nil
}

// 备注文本
const (
	noteOffDuty      = "Off duty"
	notePreTrip      = "Pre-trip inspection"
	notePickup       = "Pickup - loading"
	noteDropoff      = "Dropoff - unloading"
	noteDriving      = "Driving"
	noteFuel         = "Fuel stop"
	noteBreak        = "30-minute break"
	noteRest         = "10-hour rest"
	noteCycleBlocked = "Driving prohibited: 70-hour cycle exhausted"
	locationEnRoute  = "En route"
)
