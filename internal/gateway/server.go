package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/gokul1818/foodOrderAdmin/internal/config"
	"github.com/gokul1818/foodOrderAdmin/internal/domain"
	"github.com/gokul1818/foodOrderAdmin/internal/notify"
	"github.com/gokul1818/foodOrderAdmin/internal/session"
)

var (
	errMaxClients = errors.New("max console connections reached")
	errHubStopped = errors.New("hub stopped")
)

// sessionController is the slice of the controller the gateway needs.
type sessionController interface {
	State() session.State
	SelectTenant(tenantID string) error
}

// authority is the slice of the auth provider the admin surface drives.
type authority interface {
	SignIn(ctx context.Context, id string) error
	SignOut(ctx context.Context) error
}

// documentStore is the producer side of the document store for the admin
// surface.
type documentStore interface {
	Put(ctx context.Context, collection, id string, doc any) error
	Get(ctx context.Context, collection, id string) (domain.Document, error)
	Remove(ctx context.Context, collection, id string) error
}

// Server is the console gateway: health and metrics endpoints, the session
// state API, and the websocket stream the console shell subscribes to.
type Server struct {
	echo       *echo.Echo
	config     *config.Config
	controller sessionController
	hub        *Hub
	toasts     *notify.ToastCenter
	auth       authority
	docs       documentStore
	rdb        *goredis.Client
	startTime  time.Time
}

func NewServer(cfg *config.Config, controller sessionController, hub *Hub, toasts *notify.ToastCenter, auth authority, docs documentStore, rdb *goredis.Client) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	srv := &Server{
		echo:       e,
		config:     cfg,
		controller: controller,
		hub:        hub,
		toasts:     toasts,
		auth:       auth,
		docs:       docs,
		rdb:        rdb,
		startTime:  time.Now(),
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
