package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docchat/internal/middleware"
	"github.com/xxxsen/docchat/internal/pkg/response"
)

type RouterDeps struct {
	Chat          *ChatHandler
	Admin         *AdminHandler
	AdminSecret   []byte
	ChatRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/healthz", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	chatGroup := api.Group("/chat")
	chatGroup.Use(middleware.RateLimit(deps.ChatRateLimit))
	chatGroup.POST("/message", deps.Chat.Message)
	chatGroup.POST("/action", deps.Chat.Action)

	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.JWTAuth(deps.AdminSecret))
	adminGroup.GET("/documents", deps.Admin.ListDocuments)
	adminGroup.POST("/documents/reindex", deps.Admin.Reindex)
	adminGroup.GET("/stats", deps.Admin.Stats)
}
