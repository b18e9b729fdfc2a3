package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/gokul1818/foodOrderAdmin/internal/domain"
	"github.com/gokul1818/foodOrderAdmin/internal/notify"
	"github.com/gokul1818/foodOrderAdmin/internal/version"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // console shell is served from a separate origin
	},
}

func (s *Server) handleLiveness(c echo.Context) error {
	uptime := time.Since(s.startTime).Seconds()
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": uptime,
	})
}

func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"status":       "unhealthy",
			"failed_check": "redis",
			"error":        err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(http.StatusOK, version.Get())
}

func (s *Server) handleSessionState(c echo.Context) error {
	return c.JSON(http.StatusOK, s.controller.State())
}

type selectTenantRequest struct {
	TenantID string `json:"tenantId"`
}

func (s *Server) handleSelectTenant(c echo.Context) error {
	var req selectTenantRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.TenantID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "tenantId is required"})
	}

	err := s.controller.SelectTenant(req.TenantID)
	switch {
	case errors.Is(err, domain.ErrNotSignedIn):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrNotSuperAdmin):
		return c.JSON(http.StatusForbidden, map[string]string{"error": err.Error()})
	case err != nil:
		slog.Error("Failed to select tenant", "tenant_id", req.TenantID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to select tenant"})
	}

	return c.JSON(http.StatusOK, s.controller.State())
}

func (s *Server) handleNotificationsWS(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade WebSocket: %w", err)
	}

	if err := s.hub.Register(conn); err != nil {
		slog.Warn("Failed to register console client", "error", err)
		return nil
	}

	// Replay toasts still on screen so a shell connecting mid-flight catches
	// up; only this connection gets the replay.
	for _, toast := range s.toasts.Active() {
		s.hub.SendToast(conn, notify.ToastEvent{Type: notify.ToastShown, Toast: toast})
	}

	// Read pump — the shell only sends dismiss commands; blocks until the
	// connection closes.
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		s.handleClientMessage(msg)
	}

	s.hub.Unregister(conn)
	return nil //nolint:nilerr // ReadMessage err is block-scoped; outer err is nil
}

type clientMessage struct {
	Type    string `json:"type"`
	ToastID string `json:"toastId,omitempty"`
}

func (s *Server) handleClientMessage(data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Warn("Ignoring malformed console client message", "error", err)
		return
	}

	switch msg.Type {
	case "dismiss":
		s.toasts.Dismiss(msg.ToastID)
	default:
		slog.Debug("Ignoring unknown console client message", "type", msg.Type)
	}
}
