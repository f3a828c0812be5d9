package impression

import (
	"ai_impression/pkg/profile"
	"errors"
)

var (
	// ErrOracleUnavailable 模型或向量服务调用失败、超时
	ErrOracleUnavailable = errors.New("oracle unavailable")
	// ErrMalformedOracleResponse 模型返回无法解析
	ErrMalformedOracleResponse = profile.ErrMalformedResponse
	// ErrDuplicateMessage 消息已处理过，调用方按成功的空操作处理
	ErrDuplicateMessage = errors.New("duplicate message")
	// ErrInvalidEvent 消息事件缺少必要字段
	ErrInvalidEvent = errors.New("invalid message event")
)
