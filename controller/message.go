package controller

import (
	"ai_impression/config"
	"ai_impression/constant"
	"ai_impression/model"
	"ai_impression/service/factory"
	"ai_impression/service/impression"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ProcessMessage 同步处理一条消息
// @Summary 同步处理消息
// @Description 执行完整流水线并返回处理结果，失败的消息保持未处理，可重试
// @Tags Message
// @Accept json
// @Produce json
// @Param request body model.MessageEvent true "消息事件"
// @Success 200 {object} model.ProcessMessageResponse
// @Router /api/v1/messages [post]
func ProcessMessage(ctx *gin.Context) {
	var req model.MessageEvent
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeError(ctx, model.NewError(model.ErrorParams, err))
		return
	}

	resp, err := factory.GetServiceFactory().NewImpressionService().ProcessMessage(ctx.Request.Context(), &req)
	if err != nil {
		log.Errorf("ProcessMessage error: %v", err)
		writeError(ctx, pipelineError(err))
		return
	}

	ctx.JSON(http.StatusOK, model.Success(resp))
}

// EnqueueMessage 异步处理消息
// @Summary 消息入队
// @Description 消息进入异步分发队列，同一用户按到达顺序处理
// @Tags Message
// @Accept json
// @Produce json
// @Param request body model.MessageEvent true "消息事件"
// @Success 202 {object} model.EnqueueResponse
// @Router /api/v1/messages/async [post]
func EnqueueMessage(ctx *gin.Context) {
	var req model.MessageEvent
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeError(ctx, model.NewError(model.ErrorParams, err))
		return
	}

	userID, messageID := impression.ResolveIdentity(&req, time.Now())
	if userID == constant.EmptyString {
		writeError(ctx, model.NewError(model.ErrorEmptyId, nil))
		return
	}
	// 补全派生 ID 和接收时间，保证入队和处理时使用同一个 ID
	req.MessageID = messageID

	if !factory.GetServiceFactory().Dispatcher().Enqueue(&req) {
		writeError(ctx, model.NewError(model.ErrorQueueFull, nil))
		return
	}

	ctx.JSON(http.StatusAccepted, model.Success(&model.EnqueueResponse{
		UserID:    userID,
		MessageID: messageID,
		Queued:    true,
	}))
}

// RetryPending 重试未处理的消息
// @Summary 重试未处理消息
// @Tags Message
// @Produce json
// @Param limit query int false "最多重试条数"
// @Success 200 {object} model.RetryResult
// @Router /api/v1/messages/retry [post]
func RetryPending(ctx *gin.Context) {
	var pager model.Pager
	if err := ctx.ShouldBindQuery(&pager); err != nil {
		writeError(ctx, model.NewError(model.ErrorParams, err))
		return
	}
	limit := pager.Limit
	if limit <= 0 {
		limit = config.GetInstance().GetIntOrDefault(config.DispatcherRetryBatchSize, constant.DefaultRetryBatchSize)
	}

	result, err := factory.GetServiceFactory().NewImpressionService().RetryPending(ctx.Request.Context(), limit)
	if err != nil {
		log.Errorf("RetryPending error: %v", err)
		writeError(ctx, pipelineError(err))
		return
	}

	ctx.JSON(http.StatusOK, model.Success(result))
}
