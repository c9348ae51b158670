package hos

import (
	"sort"
	"time"

	"github.com/langchou/eldplanner/internal/models"
)

// Segment 一段连续状态
type Segment struct {
	Span
	Status   models.DutyStatus
	Location string
	Notes    string
}

func (s Segment) duration() time.Duration {
	return time.Duration(s.Len()) * time.Minute
}

// DayView 单日检查的输入：时间线加跨天上下文
type DayView struct {
	Segments         []Segment
	DeclaredDriving  time.Duration // 记录中声明的驾驶时长，与时间线取大者
	CycleHoursBefore float64       // 当天开始前的周期累计
	PriorRest        time.Duration // 前一天结尾的连续休息，小于 0 表示未知
}

// Check 单条规则，违规时返回描述，否则返回空串
type Check func(r RuleSet, v DayView) string

// DefaultChecks 默认检查顺序即违规列表顺序
func DefaultChecks() []Check {
	return []Check{
		CheckDailyDriving,
		CheckOnDutyWindow,
		CheckBreak,
		CheckCycle,
		CheckRest,
	}
}

// Detector 违规检查器，与生成逻辑相互独立
type Detector struct {
	rules  RuleSet
	checks []Check
}

// NewDetector 创建检查器，未指定 checks 时使用 DefaultChecks
func NewDetector(rules RuleSet, checks ...Check) *Detector {
	if len(checks) == 0 {
		checks = DefaultChecks()
	}
	return &Detector{rules: rules, checks: checks}
}

// Detect 逐条检查，互不影响，可同时触发多条
func (d *Detector) Detect(v DayView) []string {
	out := []string{}
	for _, check := range d.checks {
		if msg := check(d.rules, v); msg != "" {
			out = append(out, msg)
		}
	}
	return out
}

// DetectPlan 检查单日计划（不含前一天的休息上下文）
func (d *Detector) DetectPlan(day models.DailyPlan, cycleHoursBefore float64) []string {
	return d.Detect(DayView{
		Segments:         SegmentsFromChanges(day.DutyStatusChanges),
		DeclaredDriving:  hoursToDuration(day.DrivingHours),
		CycleHoursBefore: cycleHoursBefore,
		PriorRest:        -1,
	})
}

// DetectLog 检查单日日志（不含前一天的休息上下文）
func (d *Detector) DetectLog(log models.DailyLog, cycleHoursBefore float64) []string {
	return d.Detect(DayView{
		Segments:         SegmentsFromGrid(&log.Grid),
		DeclaredDriving:  hoursToDuration(log.TotalDriveTime),
		CycleHoursBefore: cycleHoursBefore,
		PriorRest:        -1,
	})
}

// DetectPlans 按顺序检查多天计划，周期和休息在天与天之间传递
func (d *Detector) DetectPlans(days []models.DailyPlan, cycleHoursUsed float64) [][]string {
	timelines := make([][]Segment, len(days))
	declared := make([]time.Duration, len(days))
	for i, day := range days {
		timelines[i] = SegmentsFromChanges(day.DutyStatusChanges)
		declared[i] = hoursToDuration(day.DrivingHours)
	}
	return d.detectSequence(timelines, declared, cycleHoursUsed)
}

// AnnotateLogs 返回标注了违规的新日志列表
func (d *Detector) AnnotateLogs(logs []models.DailyLog, cycleHoursUsed float64) []models.DailyLog {
	timelines := make([][]Segment, len(logs))
	declared := make([]time.Duration, len(logs))
	for i := range logs {
		timelines[i] = SegmentsFromGrid(&logs[i].Grid)
		declared[i] = hoursToDuration(logs[i].TotalDriveTime)
	}

	violations := d.detectSequence(timelines, declared, cycleHoursUsed)
	out := make([]models.DailyLog, len(logs))
	for i, log := range logs {
		log.Violations = violations[i]
		log.HOSCompliant = len(violations[i]) == 0
		out[i] = log
	}
	return out
}

func (d *Detector) detectSequence(timelines [][]Segment, declared []time.Duration, cycleHoursUsed float64) [][]string {
	out := make([][]string, len(timelines))
	cycle := cycleHoursUsed
	prior := time.Duration(-1)

	for i, segs := range timelines {
		out[i] = d.Detect(DayView{
			Segments:         segs,
			DeclaredDriving:  declared[i],
			CycleHoursBefore: cycle,
			PriorRest:        prior,
		})

		cycle += onDuty(segs).Hours()
		switch {
		case hasOnDuty(segs):
			prior = trailingRest(segs)
		case prior >= 0:
			prior += 24 * time.Hour
		}
	}
	return out
}

// CheckDailyDriving 当天驾驶超过上限
func CheckDailyDriving(r RuleSet, v DayView) string {
	driving := v.DeclaredDriving
	if t := drivingTotal(v.Segments); t > driving {
		driving = t
	}
	if r.DrivingExceeded(driving) {
		return ViolationDailyDriving
	}
	return ""
}

// CheckOnDutyWindow 从第一个值班事件到最后一个的跨度超过窗口
// 当天内出现足够长的休息时按两个值班周期分别计算
func CheckOnDutyWindow(r RuleSet, v DayView) string {
	first, last := -1, -1
	var rest time.Duration

	exceeded := false
	closePeriod := func() {
		if first >= 0 && r.WindowExceeded(time.Duration(last-first)*time.Minute) {
			exceeded = true
		}
		first, last = -1, -1
	}

	for _, s := range v.Segments {
		if s.Status.OnDuty() {
			if first >= 0 && r.QualifiesAsRest(rest) {
				closePeriod()
			}
			if first < 0 {
				first = s.Start
			}
			last = s.End
			rest = 0
			continue
		}
		rest += s.duration()
	}
	closePeriod()

	if exceeded {
		return ViolationOnDutyWindow
	}
	return ""
}

// CheckBreak 两次合格休息之间累计驾驶超过 8 小时
// 任何连续 30 分钟以上的非驾驶时段都算合格休息
func CheckBreak(r RuleSet, v DayView) string {
	var driving, nonDriving time.Duration
	for _, s := range v.Segments {
		if s.Status != models.StatusDriving {
			nonDriving += s.duration()
			continue
		}
		if r.QualifiesAsBreak(nonDriving) {
			driving = 0
		}
		nonDriving = 0
		driving += s.duration()
		if r.BreakRequired(driving) {
			return ViolationBreak
		}
	}
	return ""
}

// CheckCycle 周期累计值班超过上限
func CheckCycle(r RuleSet, v DayView) string {
	if r.CycleExceeded(v.CycleHoursBefore + onDuty(v.Segments).Hours()) {
		return ViolationCycle
	}
	return ""
}

// CheckRest 前一天结尾与当天开头的休息合计不足
func CheckRest(r RuleSet, v DayView) string {
	if v.PriorRest < 0 || !hasOnDuty(v.Segments) {
		return ""
	}
	if !r.QualifiesAsRest(v.PriorRest + leadingRest(v.Segments)) {
		return ViolationRest
	}
	return ""
}

// SegmentsFromChanges 把状态变化整理成按时间排序、首尾相接的区间
// 只有 Time 字段的外部数据按 HH:MM 解析开始时间
func SegmentsFromChanges(changes []models.DutyStatusChange) []Segment {
	segs := make([]Segment, 0, len(changes))
	for _, c := range changes {
		start := c.StartMinute
		if start == 0 && c.EndMinute == 0 && c.Time != "" {
			if m, err := ParseClock(c.Time); err == nil {
				start = m
			}
		}
		segs = append(segs, Segment{
			Span:     Span{Start: clamp(start), End: clamp(c.EndMinute)},
			Status:   c.Status.Normalize(),
			Location: c.Location,
			Notes:    c.Notes,
		})
	}

	sort.SliceStable(segs, func(i, j int) bool { return segs[i].Start < segs[j].Start })
	for i := range segs {
		switch {
		case i+1 < len(segs):
			segs[i].End = segs[i+1].Start
		case segs[i].End <= segs[i].Start:
			segs[i].End = MinutesPerDay
		}
	}
	return segs
}

// SegmentsFromGrid 合并相邻同状态的格子
func SegmentsFromGrid(g *models.Grid) []Segment {
	var segs []Segment
	for i, s := range g {
		status := s.Normalize()
		start := i * SlotMinutes
		if n := len(segs); n > 0 && segs[n-1].Status == status {
			segs[n-1].End = start + SlotMinutes
			continue
		}
		segs = append(segs, Segment{Span: Span{Start: start, End: start + SlotMinutes}, Status: status})
	}
	return segs
}

func drivingTotal(segs []Segment) time.Duration {
	var total time.Duration
	for _, s := range segs {
		if s.Status == models.StatusDriving {
			total += s.duration()
		}
	}
	return total
}

func onDuty(segs []Segment) time.Duration {
	var total time.Duration
	for _, s := range segs {
		if s.Status.OnDuty() {
			total += s.duration()
		}
	}
	return total
}

func hasOnDuty(segs []Segment) bool {
	for _, s := range segs {
		if s.Status.OnDuty() && s.Len() > 0 {
			return true
		}
	}
	return false
}

func leadingRest(segs []Segment) time.Duration {
	var total time.Duration
	for _, s := range segs {
		if s.Status.OnDuty() && s.Len() > 0 {
			break
		}
		total += s.duration()
	}
	return total
}

func trailingRest(segs []Segment) time.Duration {
	var total time.Duration
	for i := len(segs) - 1; i >= 0; i-- {
		if segs[i].Status.OnDuty() && segs[i].Len() > 0 {
			break
		}
		total += segs[i].duration()
	}
	return total
}

func clamp(m int) int {
	if m < 0 {
		return 0
	}
	if m > MinutesPerDay {
		return MinutesPerDay
	}
	return m
}

func hoursToDuration(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
