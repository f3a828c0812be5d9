package prompt

import (
	"sort"
	"strings"
)

// Render 将模板中的 {name} 替换为对应变量，未提供的占位符原样保留
func Render(template string, vars map[string]string) string {
	if len(vars) == 0 {
		return template
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	// 长 key 优先，避免前缀相同的占位符被提前替换
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
