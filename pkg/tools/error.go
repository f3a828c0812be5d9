package tools

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// CloseWithLog 用于 defer 关闭资源，关闭失败只记录 warn
func CloseWithLog(closeFunc func() error, format string, args ...interface{}) {
	if err := closeFunc(); err != nil {
		log.WithError(err).WithField("resource", fmt.Sprintf(format, args...)).Warn("close resource failed")
	}
}
