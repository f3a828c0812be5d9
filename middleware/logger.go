package middleware

import (
	"ai_impression/pkg/projectlog"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	RequestIDHeader = "X-Request-ID"
	// maxLoggedBody 请求体超过该长度时只记录前缀
	maxLoggedBody = 2048
)

// quietPaths 探活和指标抓取不记访问日志
var quietPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// Logger 请求结束后记录一条访问日志，5xx 记 error，4xx 记 warn
func Logger(ctx *gin.Context) {
	if quietPaths[ctx.Request.URL.Path] {
		ctx.Next()
		return
	}

	start := time.Now()
	body, err := peekBody(ctx.Request)
	if err != nil {
		logrus.WithError(err).Warn("read request body failed")
	}

	ctx.Next()

	fields := logrus.Fields{
		"method":     ctx.Request.Method,
		"path":       ctx.Request.URL.Path,
		"status":     ctx.Writer.Status(),
		"latency_ms": time.Since(start).Milliseconds(),
		"client_ip":  ctx.ClientIP(),
	}
	if requestID, ok := ctx.Get(RequestIDHeader); ok {
		fields[projectlog.FieldKeyRequestID] = requestID
	}
	if caller, ok := ctx.Get(CallerKey); ok {
		fields["caller"] = caller
	}
	if body != "" {
		fields["body"] = body
	}

	entry := logrus.WithFields(fields)
	switch status := ctx.Writer.Status(); {
	case status >= http.StatusInternalServerError:
		entry.Error("request done")
	case status >= http.StatusBadRequest:
		entry.Warn("request done")
	default:
		entry.Info("request done")
	}
}

// peekBody 读出请求体后放回，供后续 handler 绑定
func peekBody(req *http.Request) (string, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return "", nil
	}
	raw, err := io.ReadAll(req.Body)
	req.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return "", errors.WithStack(err)
	}
	if len(raw) > maxLoggedBody {
		return fmt.Sprintf("%s...(%d bytes)", raw[:maxLoggedBody], len(raw)), nil
	}
	return string(raw), nil
}
