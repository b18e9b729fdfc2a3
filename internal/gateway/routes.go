package gateway

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/api/version", s.handleVersion)

	// Session state for the console shell
	s.echo.GET("/api/session", s.handleSessionState)
	s.echo.POST("/api/session/tenant", s.handleSelectTenant)

	// Live toast/notification stream
	s.echo.GET("/ws/notifications", s.handleNotificationsWS)

	// Admin surface: auth and raw document access
	admin := s.echo.Group("/api/admin")
	admin.POST("/auth/signin", s.handleSignIn)
	admin.POST("/auth/signout", s.handleSignOut)
	admin.PUT("/collections/:collection/docs/:id", s.handlePutDocument)
	admin.GET("/collections/:collection/docs/:id", s.handleGetDocument)
	admin.DELETE("/collections/:collection/docs/:id", s.handleRemoveDocument)
}
