package projectlog

import (
	"ai_impression/config"
	"github.com/sirupsen/logrus"
	"os"
)

// Init 按配置设置日志级别和调用位置，输出 JSON 到 stdout
func Init() {
	logrus.SetFormatter(&JSONFormatter{})
	level := logrus.Level(config.GetInstance().GetInt(config.AppLogLevel))
	logrus.SetLevel(level)
	rc := config.GetInstance().GetBool(config.AppLogReportcaller)
	logrus.SetReportCaller(rc)
	logrus.SetOutput(os.Stdout)
}
