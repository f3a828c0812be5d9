package time

import (
	"time"
)

const (
	TimeFormatTableStyleSec = "20060102150405" //sql表风格到秒级别，时间格式化模版

	TimeFormatCommonStyleDay = "2006-01-02"
	TimeFormatCommonStyleMin = "2006-01-02 15:04"
	TimeFormatCommonStyleSec = "2006-01-02 15:04:05"
)

func GetNowTimestamp() int64 {
	return time.Now().UnixNano() / 1000000
}

// FromUnixOrNow 秒级时间戳转时间，非正数返回当前时间
func FromUnixOrNow(seconds int64) time.Time {
	if seconds <= 0 {
		return time.Now()
	}
	return time.Unix(seconds, 0)
}

// HoursBefore 返回 t 之前 hours 小时的时间点，hours 非正时返回 nil 表示不限制
func HoursBefore(t time.Time, hours int) *time.Time {
	if hours <= 0 {
		return nil
	}
	since := t.Add(-time.Duration(hours) * time.Hour)
	return &since
}

func FormatCommon(t time.Time) string {
	return t.Format(TimeFormatCommonStyleSec)
}
