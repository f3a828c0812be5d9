package profile

import (
	"ai_impression/constant"
	"ai_impression/pkg/str"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	weightScorePattern  = regexp.MustCompile(`(?i)WEIGHT_SCORE\s*[:：]\s*(-?\d+(?:\.\d+)?)`)
	weightReasonPattern = regexp.MustCompile(`(?i)\bREASON\s*[:：]\s*([^;；\n]*)`)
	codeFencePattern    = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

// WeightVerdict 权重评估结果
type WeightVerdict struct {
	Score  float64
	Reason string
}

type weightJSON struct {
	WeightScore *float64 `json:"weight_score"`
	Score       *float64 `json:"score"`
	Reason      string   `json:"reason"`
}

// ParseWeightResponse 解析权重评估返回，支持 "WEIGHT_SCORE: n; REASON: ..." 键值格式和 JSON 格式
// 分数会被截断到 [0,100]，模型给出的等级被忽略
func ParseWeightResponse(text string) (*WeightVerdict, error) {
	body := stripCodeFence(text)

	if m := weightScorePattern.FindStringSubmatch(body); m != nil {
		score, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: weight score %q: %v", ErrMalformedResponse, m[1], err)
		}
		verdict := &WeightVerdict{Score: ClampWeight(score)}
		if r := weightReasonPattern.FindStringSubmatch(body); r != nil {
			verdict.Reason = str.RemoveBothSidesBrackets(r[1])
		}
		return verdict, nil
	}

	var parsed weightJSON
	if err := json.Unmarshal([]byte(body), &parsed); err == nil {
		score := parsed.WeightScore
		if score == nil {
			score = parsed.Score
		}
		if score != nil {
			return &WeightVerdict{Score: ClampWeight(*score), Reason: str.RemoveBothSidesBrackets(parsed.Reason)}, nil
		}
	}

	return nil, fmt.Errorf("%w: no weight score in %q", ErrMalformedResponse, abbreviate(text, 120))
}

// ClampWeight 截断到权重分数范围
func ClampWeight(score float64) float64 {
	return clamp(score, constant.WeightScoreMin, constant.WeightScoreMax)
}

// ClassifyWeight 按阈值换算权重等级
func ClassifyWeight(score, high, medium float64) constant.WeightLevel {
	switch {
	case score >= high:
		return constant.WeightLevelHigh
	case score >= medium:
		return constant.WeightLevelMedium
	default:
		return constant.WeightLevelLow
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func stripCodeFence(text string) string {
	body := strings.TrimSpace(text)
	if m := codeFencePattern.FindStringSubmatch(body); m != nil {
		return strings.TrimSpace(m[1])
	}
	return body
}

func abbreviate(s string, max int) string {
	if str.RuneLen(s) <= max {
		return s
	}
	return str.TruncateHead(s, max) + "..."
}
