// Package http is the gin transport over the availability, booking and
// session services.
package http

import (
	"net/http"

	"github.com/cetiassist/asesoria_backend/internal/auth"
	"github.com/cetiassist/asesoria_backend/internal/feed"
	"github.com/cetiassist/asesoria_backend/internal/model"
	"github.com/cetiassist/asesoria_backend/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers bundles the services behind the HTTP surface.
type Handlers struct {
	users          *service.UserService
	availabilities *service.AvailabilityService
	bookings       *service.BookingService
	watcher        *feed.Watcher
	tokens         *auth.TokenManager
	logger         *zap.Logger
}

func NewHandlers(
	users *service.UserService,
	availabilities *service.AvailabilityService,
	bookings *service.BookingService,
	watcher *feed.Watcher,
	tokens *auth.TokenManager,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		users:          users,
		availabilities: availabilities,
		bookings:       bookings,
		watcher:        watcher,
		tokens:         tokens,
		logger:         logger,
	}
}

// NewRouter wires routes and middleware. metricsHandler serves
// /metrics; pass nil to skip it.
func NewRouter(h *Handlers, env string, metricsHandler http.Handler) *gin.Engine {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(h.logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	api := router.Group("/api")
	{
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)

		authed := api.Group("")
		authed.Use(h.Authenticate())
		{
			authed.GET("/me", h.Me)

			authed.GET("/availabilities", h.ListAvailabilities)
			authed.POST("/availabilities", RequireRole(model.RoleProfessor), h.PublishAvailability)

			authed.POST("/availabilities/:id/reserve", RequireRole(model.RoleStudent), h.Reserve)
			authed.POST("/availabilities/:id/cancel", h.Cancel)
			authed.POST("/reservations/validate", RequireRole(model.RoleStudent), h.ValidateReservation)
			authed.GET("/reservations", RequireRole(model.RoleStudent), h.MyReservations)

			authed.GET("/sessions/available", h.AvailableSessions)
			authed.GET("/feed/ws", h.FeedWebSocket)
		}
	}

	return router
}
