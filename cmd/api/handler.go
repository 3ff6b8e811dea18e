package api

import (
	"net/http"
	"strconv"

	"presensi-backend/internal/notification"
	"presensi-backend/internal/notification/repository"
	"presensi-backend/internal/sync"
	"presensi-backend/internal/sync/scheduler"

	"github.com/gin-gonic/gin"
)

// Handler exposes the admin triggers and webhook entry points. It is a thin
// surface: every route maps directly onto an engine, scheduler or dispatcher
// call and returns that call's summary for display.
type Handler struct {
	engine        *sync.Engine
	source        sync.SourceStore
	sched         *scheduler.Scheduler
	dispatcher    *notification.Dispatcher
	notifications repository.NotificationRepository
	tokenStore    *notification.TokenStore
}

// NewHandler creates the API handler.
func NewHandler(engine *sync.Engine, source sync.SourceStore, sched *scheduler.Scheduler, dispatcher *notification.Dispatcher, notifications repository.NotificationRepository, tokenStore *notification.TokenStore) *Handler {
	return &Handler{
		engine:        engine,
		source:        source,
		sched:         sched,
		dispatcher:    dispatcher,
		notifications: notifications,
		tokenStore:    tokenStore,
	}
}

// Health reports the coarse loop health for external monitoring
// GET /api/health
func (h *Handler) Health(c *gin.Context) {
	health := h.sched.HealthCheck()
	code := http.StatusOK
	if health.Status == "down" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, health)
}

// SyncStatus returns the scheduler's state snapshot
// GET /api/sync/status
func (h *Handler) SyncStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.sched.Status())
}

// RunSync runs a reconciliation pass now, optionally for one kind or as a
// dry run
// POST /api/sync/run?kind=permit&dry_run=true
func (h *Handler) RunSync(c *gin.Context) {
	dryRun := c.Query("dry_run") == "true"

	if kindParam := c.Query("kind"); kindParam != "" {
		kind, ok := sync.ParseKind(kindParam)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown entity kind: " + kindParam})
			return
		}

		records, err := h.source.ListEntities(c.Request.Context(), kind, 0)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}

		var report sync.Report
		if dryRun {
			report, err = h.engine.DryRun(c.Request.Context(), kind, records)
		} else {
			report, err = h.engine.Reconcile(c.Request.Context(), kind, records)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "report": report})
			return
		}
		c.JSON(http.StatusOK, gin.H{"reports": []sync.Report{report}})
		return
	}

	var (
		reports []sync.Report
		err     error
	)
	if dryRun {
		reports, err = h.sched.DryRun(c.Request.Context())
	} else {
		reports, err = h.sched.RunOnce(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "reports": reports})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// SyncEntity reconciles one entity by external key
// POST /api/sync/:kind/:key
func (h *Handler) SyncEntity(c *gin.Context) {
	kind, ok := sync.ParseKind(c.Param("kind"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown entity kind: " + c.Param("kind")})
		return
	}

	report, err := h.engine.SyncKey(c.Request.Context(), kind, c.Param("key"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// Webhook receives an inbound change notification and routes it through the
// single-record reconciliation path
// POST /api/webhooks/:kind
func (h *Handler) Webhook(c *gin.Context) {
	var change sync.ChangeMessage
	if err := c.ShouldBindJSON(&change); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	change.Kind = c.Param("kind")

	report, err := h.engine.ApplyChange(c.Request.Context(), change)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// ListNotifications returns recent notifications with their delivery status
// GET /api/notifications?limit=50&offset=0
func (h *Handler) ListNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	notifications, total, err := h.notifications.List(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"total":         total,
	})
}

// ResendNotification re-dispatches a previously sent or failed notification
// POST /api/notifications/:id/resend
func (h *Handler) ResendNotification(c *gin.Context) {
	n, err := h.dispatcher.Resend(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, n)
}

// SyncToken copies an employee's freshest Source Store token into the local
// mirror
// POST /api/tokens/:uid/sync
func (h *Handler) SyncToken(c *gin.Context) {
	updated, err := h.tokenStore.SyncLocalToken(c.Request.Context(), c.Param("uid"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// CleanupTokens removes tokens unseen past the retention window
// POST /api/tokens/cleanup
func (h *Handler) CleanupTokens(c *gin.Context) {
	removed, err := h.tokenStore.Cleanup(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
