package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/health", handler.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/feedback", handler.SubmitFeedback)
		api.POST("/admin/login", handler.Login)
	}

	admin := router.Group("/api", AdminAuth(handler.auth))
	{
		admin.GET("/feedback", handler.ListFeedback)
		admin.GET("/admin/metrics", handler.Metrics)
		admin.GET("/admin/export", handler.Export)
		admin.GET("/admin/qr", handler.QRCode)
		admin.POST("/admin/imports", handler.UploadImport)
		admin.GET("/admin/imports/:id", handler.GetImport)
	}
}

// NewRouter builds the engine with the middleware stack used by cmd/api.
func NewRouter(handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(RecoveryMiddleware(handler.log))
	router.Use(CORSMiddleware(handler.cfg.Server.AllowedOrigins))
	router.Use(LoggingMiddleware(handler.log))

	SetupRoutes(router, handler)
	return router
}
