package controller

import (
	"ai_impression/service/factory"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health 存活探针
func Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Metrics 暴露 prometheus 指标
func Metrics(ctx *gin.Context) {
	factory.GetServiceFactory().Metrics().Handler().ServeHTTP(ctx.Writer, ctx.Request)
}
