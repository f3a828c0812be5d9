package profile

import (
	"ai_impression/pkg/str"
	"strings"
)

// HistoryOptions 历史上下文拼接参数
type HistoryOptions struct {
	MaxMessages int
	MinLength   int
	MaxChars    int
}

// BuildHistory 拼接历史消息，contents 按时间正序，超出 MaxChars 时保留最近部分
func BuildHistory(contents []string, opts HistoryOptions) string {
	kept := make([]string, 0, len(contents))
	for _, c := range contents {
		c = strings.TrimSpace(c)
		if c == "" || str.RuneLen(c) < opts.MinLength {
			continue
		}
		kept = append(kept, c)
	}
	if opts.MaxMessages > 0 && len(kept) > opts.MaxMessages {
		kept = kept[len(kept)-opts.MaxMessages:]
	}

	var b strings.Builder
	for i, c := range kept {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(c)
	}
	return str.TruncateTail(b.String(), opts.MaxChars)
}
