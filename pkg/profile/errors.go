package profile

import "errors"

// ErrMalformedResponse 模型返回内容无法解析
var ErrMalformedResponse = errors.New("malformed oracle response")
