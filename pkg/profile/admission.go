package profile

import "ai_impression/constant"

// Admit 准入判定，对同一组阈值关于分数单调不减
func Admit(score float64, mode constant.FilterMode, high, medium float64) bool {
	switch mode {
	case constant.FilterModeDisabled:
		return true
	case constant.FilterModeSelective:
		return score >= high
	case constant.FilterModeBalanced:
		return score >= medium
	default:
		return false
	}
}
