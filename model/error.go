package model

import (
	"fmt"
	"regexp"

	log "github.com/sirupsen/logrus"
)

const (
	ErrorParams               = 100010
	ErrorEmptyId              = 100011
	ErrorNewRepo              = 100012
	ErrorDB                   = 100015
	ErrorNoPermission         = 100016
	ErrorNotFound             = 100017
	ErrorOracleUnavailable    = 100018
	ErrorMalformedOracleReply = 100019
	ErrorInvalidConfiguration = 100020
	ErrorPipeline             = 100021
	ErrorQueueFull            = 100022
	ErrorCanceled             = 100023
)

// 自定义扩展的 http 状态码
const (
	HttpStatusNoPermission = 491 // 无权限
)

var ErrorMessages = map[int]string{
	ErrorParams:               "参数错误",
	ErrorEmptyId:              "id 为空",
	ErrorNewRepo:              "新建 repo 失败",
	ErrorDB:                   "db error",
	ErrorNoPermission:         "无权限",
	ErrorNotFound:             "记录不存在",
	ErrorOracleUnavailable:    "模型服务不可用，请稍后重试",
	ErrorMalformedOracleReply: "模型返回格式错误，请稍后重试",
	ErrorInvalidConfiguration: "配置错误",
	ErrorPipeline:             "消息处理失败",
	ErrorQueueFull:            "队列已满，请稍后重试",
	ErrorCanceled:             "请求已取消",
}

type Error struct {
	Code       int    `json:"code"`
	Message    string `json:"message"`
	InnerError error  `json:"-"`
}

func (err Error) Error() string {
	return err.Message
}

func (err Error) String() string {
	if err.InnerError == nil {
		return err.Message
	}
	return err.InnerError.Error()
}

func (err Error) Unwrap() error {
	return err.InnerError
}

func NewError(code int, innerError error) *Error {
	if innerError != nil {
		var re = regexp.MustCompile(`[\n\t]+`)
		innerErrorString := re.ReplaceAllString(fmt.Sprintf("%+v", innerError), " ")
		log.Errorf("NewError code:%d, message:%s, innerError:%+v\n", code, ErrorMessages[code], innerErrorString)
	}
	return &Error{
		Code:       code,
		Message:    ErrorMessages[code],
		InnerError: innerError,
	}
}

func NewErrorWithMessage(code int, message string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		InnerError: nil,
	}
}
