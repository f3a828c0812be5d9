package str

import (
	"strings"
	"unicode/utf8"
)

// TruncateHead 保留前 max 个字符，max <= 0 不截断
func TruncateHead(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// TruncateTail 保留最后 max 个字符，max <= 0 不截断
func TruncateTail(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[len(r)-max:])
}

// RuneLen 按字符计数
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// RemoveBothSidesBrackets 去除两侧成对的括号，模型常把标签值包在括号里
func RemoveBothSidesBrackets(s string) string {
	s = strings.TrimSpace(s)
	pairs := map[rune]rune{'(': ')', '（': '）', '[': ']', '【': '】'}
	for {
		r := []rune(s)
		if len(r) < 2 {
			return s
		}
		closing, ok := pairs[r[0]]
		if !ok || r[len(r)-1] != closing {
			return s
		}
		s = strings.TrimSpace(string(r[1 : len(r)-1]))
	}
}
