package api

import "github.com/gin-gonic/gin"

// SetupRoutes mounts the admin trigger and webhook routes.
func SetupRoutes(r *gin.Engine, h *Handler) {
	api := r.Group("/api")
	{
		api.GET("/health", h.Health)

		syncRoutes := api.Group("/sync")
		{
			syncRoutes.GET("/status", h.SyncStatus)
			syncRoutes.POST("/run", h.RunSync)
			syncRoutes.POST("/:kind/:key", h.SyncEntity)
		}

		api.POST("/webhooks/:kind", h.Webhook)

		notifications := api.Group("/notifications")
		{
			notifications.GET("", h.ListNotifications)
			notifications.POST("/:id/resend", h.ResendNotification)
		}

		tokens := api.Group("/tokens")
		{
			tokens.POST("/cleanup", h.CleanupTokens)
			tokens.POST("/:uid/sync", h.SyncToken)
		}
	}
}
