package embedding

import (
	"fmt"
	"strconv"
	"strings"
)

// VectorToString 将 float64 切片转换为 PostgreSQL vector 格式字符串
// 格式: [1.0,2.0,3.0]，空向量返回空串表示不存在
func VectorToString(vec []float64) string {
	if len(vec) == 0 {
		return ""
	}

	var builder strings.Builder
	builder.WriteString("[")
	for i, v := range vec {
		if i > 0 {
			builder.WriteString(",")
		}
		builder.WriteString(strconv.FormatFloat(v, 'f', 6, 64))
	}
	builder.WriteString("]")
	return builder.String()
}

// StringToVector 解析 VectorToString 的输出，空串返回 nil
func StringToVector(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("invalid vector literal %q", abbreviate(s))
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return nil, nil
	}

	parts := strings.Split(body, ",")
	vec := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid vector element %d: %w", i, err)
		}
		vec[i] = v
	}
	return vec, nil
}

func abbreviate(s string) string {
	if len(s) > 32 {
		return s[:32] + "..."
	}
	return s
}
