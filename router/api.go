package router

import (
	"ai_impression/config"
	"ai_impression/controller"
	"ai_impression/middleware"

	"github.com/gin-gonic/gin"
)

func addApiRouter(engine *gin.Engine) {

	api := engine.Group("/api/v1")
	{
		// 消息入口
		api.POST("/messages", controller.ProcessMessage)
		api.POST("/messages/async", controller.EnqueueMessage)

		// 管理接口
		admin := api.Group("", middleware.AdminAuth(config.AdminJWTSecret, config.AdminIDs))
		admin.POST("/messages/retry", controller.RetryPending)
		admin.GET("/impressions", controller.ListImpressions)
		admin.GET("/impressions/search", controller.SearchImpressions)
		admin.GET("/impressions/:user_id", controller.GetImpression)
		admin.PUT("/impressions/:user_id/affection", controller.SetAffection)
	}
}
