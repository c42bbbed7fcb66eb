package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/myplanner/internal/logging"
	"github.com/gin-gonic/gin"
)

type handler struct {
	deps   Deps
	logger logging.Logger
}

func (h *handler) register(r *gin.Engine) {
	r.GET("/healthz", h.health)

	a := r.Group("/auth")
	a.POST("/register", h.registerPrincipal)
	a.POST("/login", h.login)
	a.POST("/refresh", h.refresh)
	a.POST("/logout", h.logout)

	authed := a.Group("", RequireAuth(h.deps.Auth))
	authed.POST("/logout-all", h.logoutAll)
	authed.GET("/me", h.me)

	t := r.Group("/tasks", RequireAuth(h.deps.Auth))
	t.POST("", h.createTask)
	t.GET("", h.listTasks)
	t.GET("/:id", h.getTask)
	t.PATCH("/:id", h.setTaskCompleted)
	t.DELETE("/:id", h.deleteTask)

	r.GET("/settings", RequireAuth(h.deps.Auth), h.getSettings)
}

func (h *handler) health(c *gin.Context) {
	if h.deps.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.deps.DB.PingContext(ctx); err != nil {
			h.logger.Error(c.Request.Context(), "health check failed", "error", err)
			respondError(c, http.StatusServiceUnavailable, "unavailable", "database unreachable")
			return
		}
	}
	respondOK(c, http.StatusOK, gin.H{"status": "ok"})
}
