package file

import (
	"os"
	"path/filepath"
)

// IsRegular 路径存在且是普通文件
func IsRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// FindUpwards 从 dir 开始逐级向上查找名为 name 的文件，找不到返回 false
func FindUpwards(dir, name string) (string, bool) {
	dir = filepath.Clean(dir)
	for {
		candidate := filepath.Join(dir, name)
		if IsRegular(candidate) {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
