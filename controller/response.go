package controller

import (
	"ai_impression/config"
	"ai_impression/model"
	"ai_impression/service/impression"
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

func writeError(ctx *gin.Context, err *model.Error) {
	ctx.JSON(httpStatusOf(err.Code), model.Response{Code: err.Code, Message: err.Message})
}

func httpStatusOf(code int) int {
	switch code {
	case model.ErrorParams, model.ErrorEmptyId:
		return http.StatusBadRequest
	case model.ErrorNoPermission:
		return model.HttpStatusNoPermission
	case model.ErrorNotFound:
		return http.StatusNotFound
	case model.ErrorOracleUnavailable, model.ErrorMalformedOracleReply:
		return http.StatusBadGateway
	case model.ErrorQueueFull:
		return http.StatusServiceUnavailable
	case model.ErrorCanceled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// pipelineError 按错误类别转换为错误码
func pipelineError(err error) *model.Error {
	switch {
	case errors.Is(err, impression.ErrInvalidEvent):
		return model.NewError(model.ErrorParams, err)
	case errors.Is(err, config.ErrInvalidConfiguration):
		return model.NewError(model.ErrorInvalidConfiguration, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return model.NewError(model.ErrorCanceled, err)
	case errors.Is(err, impression.ErrMalformedOracleResponse):
		return model.NewError(model.ErrorMalformedOracleReply, err)
	case errors.Is(err, impression.ErrOracleUnavailable):
		return model.NewError(model.ErrorOracleUnavailable, err)
	default:
		return model.NewError(model.ErrorPipeline, err)
	}
}
