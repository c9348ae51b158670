package hos

import "errors"

var (
	// ErrInvalidInput 输入越界或格式错误，规划前拒绝
	ErrInvalidInput = errors.New("invalid input")
	// ErrPlanTooLong 模拟超过 maxPlanDays 天仍未完成
	ErrPlanTooLong = errors.New("plan exceeds day limit")
)
