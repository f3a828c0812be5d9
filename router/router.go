package router

import (
	"ai_impression/controller"
	"ai_impression/middleware"
	"sync"

	"github.com/gin-gonic/gin"
)

var once sync.Once
var instance *gin.Engine

func GetInstance() *gin.Engine {
	once.Do(func() {
		instance = NewEngine()
	})
	return instance
}

// NewEngine 创建注册了全部路由的 gin 引擎
func NewEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID, middleware.Logger, gin.Recovery())
	addBasicRouter(engine)
	addApiRouter(engine)
	return engine
}

func addBasicRouter(engine *gin.Engine) {
	engine.GET("/health", controller.Health)
	engine.GET("/metrics", controller.Metrics)
}
