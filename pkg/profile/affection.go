package profile

import (
	"ai_impression/constant"
	"ai_impression/pkg/str"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	affectionTypePattern   = regexp.MustCompile(`(?i)\bTYPE\s*[:：]\s*(friendly|neutral|negative)`)
	affectionScorePattern  = regexp.MustCompile(`(?i)(?:^|[;；\n])\s*SCORE\s*[:：]\s*(-?\d+(?:\.\d+)?)`)
	affectionReasonPattern = regexp.MustCompile(`(?i)\bREASON\s*[:：]\s*([^;；\n]*)`)
)

// AffectionBand 好感度区间，分数 >= Min 即落入该区间
type AffectionBand struct {
	Min   float64
	Level constant.AffectionLevel
}

// AffectionBands 固定的好感度区间表，按 Min 降序
var AffectionBands = []AffectionBand{
	{Min: 80, Level: constant.AffectionLevelIntimate},
	{Min: 60, Level: constant.AffectionLevelFriendly},
	{Min: 40, Level: constant.AffectionLevelNeutral},
	{Min: 20, Level: constant.AffectionLevelCold},
	{Min: constant.AffectionScoreMin, Level: constant.AffectionLevelHostile},
}

// AffectionLevelOf 分数到等级的纯函数
func AffectionLevelOf(score float64) constant.AffectionLevel {
	score = ClampAffection(score)
	for _, band := range AffectionBands {
		if score >= band.Min {
			return band.Level
		}
	}
	return constant.AffectionLevelHostile
}

// ClampAffection 截断到好感度分数范围
func ClampAffection(score float64) float64 {
	return clamp(score, constant.AffectionScoreMin, constant.AffectionScoreMax)
}

// AffectionIncrements 各消息类别对应的好感度增量
type AffectionIncrements struct {
	Friendly float64
	Neutral  float64
	Negative float64
}

func (i AffectionIncrements) For(t constant.AffectionType) float64 {
	switch t {
	case constant.AffectionTypeFriendly:
		return i.Friendly
	case constant.AffectionTypeNegative:
		return i.Negative
	default:
		return i.Neutral
	}
}

// AffectionVerdict 好感度评估结果，Score 非空时表示模型直接给出了新分数
type AffectionVerdict struct {
	Type   constant.AffectionType
	Score  *float64
	Reason string
}

// ParseAffectionResponse 解析 "TYPE: friendly; REASON: ..." 格式，可选携带 "SCORE: n"
func ParseAffectionResponse(text string) (*AffectionVerdict, error) {
	body := stripCodeFence(text)
	verdict := &AffectionVerdict{}

	// TYPE 和 SCORE 只认顶层字段，REASON 中出现的同名词不参与匹配
	fields := body
	if loc := affectionReasonPattern.FindStringSubmatchIndex(body); loc != nil {
		verdict.Reason = str.RemoveBothSidesBrackets(body[loc[2]:loc[3]])
		fields = body[:loc[0]] + body[loc[1]:]
	}

	if m := affectionTypePattern.FindStringSubmatch(fields); m != nil {
		verdict.Type = constant.AffectionType(strings.ToLower(m[1]))
	}
	if m := affectionScorePattern.FindStringSubmatch(fields); m != nil {
		score, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: affection score %q: %v", ErrMalformedResponse, m[1], err)
		}
		verdict.Score = &score
	}
	if verdict.Type == "" && verdict.Score == nil {
		return nil, fmt.Errorf("%w: no affection type or score in %q", ErrMalformedResponse, abbreviate(text, 120))
	}
	if verdict.Reason == "" && verdict.Type != "" {
		verdict.Reason = string(verdict.Type)
	}
	return verdict, nil
}

// ApplyAffection 计算新的好感度分数，结果已截断
func ApplyAffection(current float64, verdict *AffectionVerdict, increments AffectionIncrements) float64 {
	if verdict.Score != nil {
		return ClampAffection(*verdict.Score)
	}
	return ClampAffection(current + increments.For(verdict.Type))
}
