package profile

import (
	"fmt"
	"regexp"
	"strings"
)

var impressionPrefixPattern = regexp.MustCompile(`(?i)^(IMPRESSION|印象)\s*[:：]\s*`)

// ParseImpressionResponse 解析印象合并返回，去掉代码块和前缀，空内容视为格式错误
func ParseImpressionResponse(text string) (string, error) {
	body := stripCodeFence(text)
	body = impressionPrefixPattern.ReplaceAllString(body, "")
	body = strings.TrimSpace(body)
	if body == "" {
		return "", fmt.Errorf("%w: empty impression text", ErrMalformedResponse)
	}
	return body, nil
}
