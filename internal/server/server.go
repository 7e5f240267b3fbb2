package server

import (
	"context"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nfrund/parley/internal/bridge"
	"github.com/nfrund/parley/internal/config"
	"github.com/nfrund/parley/internal/fanout"
	"github.com/nfrund/parley/internal/logging"
	"github.com/nfrund/parley/internal/pubsub"
	"github.com/nfrund/parley/internal/room"
	"github.com/nfrund/parley/internal/router"
	"github.com/nfrund/parley/internal/session"
)

// Server holds the dependencies for the chat service.
type Server struct {
	E      *echo.Echo
	Cfg    *config.Config
	PubSub *pubsub.WatermillBridge

	sessions *session.Registry
	rooms    *room.Directory
	bridge   *bridge.Bridge
	router   *router.Router

	cancel context.CancelFunc
}

// New creates a fully wired Server instance.
func New() *Server {
	logging.New()
	cfg := config.New()
	return NewWithConfig(cfg)
}

// NewWithConfig wires a Server from an explicit configuration. Split out so
// tests can inject their own settings.
func NewWithConfig(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	bus := pubsub.NewWatermillBridge()
	sessions := session.NewRegistry()
	rooms := room.NewDirectory(cfg.Rooms...)
	fan := fanout.NewEngine(bus, rooms)

	rtr := router.New(sessions, rooms, fan,
		router.WithHistoryLimit(cfg.HistoryLimit),
	)
	if err := rtr.Start(ctx, bus); err != nil {
		slog.Error("Failed to start message router", "error", err)
		cancel()
		os.Exit(1)
	}

	br, err := bridge.New(ctx, bus, bus,
		bridge.WithSendBuffer(cfg.SendBuffer),
	)
	if err != nil {
		slog.Error("Failed to start websocket bridge", "error", err)
		cancel()
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	return &Server{
		E:        e,
		Cfg:      cfg,
		PubSub:   bus,
		sessions: sessions,
		rooms:    rooms,
		bridge:   br,
		router:   rtr,
		cancel:   cancel,
	}
}

// Close stops subscriptions and releases the bus. Used by tests and the
// graceful shutdown path.
func (s *Server) Close() {
	s.cancel()
	if err := s.PubSub.Close(); err != nil {
		slog.Error("Failed to close pub/sub bridge", "error", err)
	}
}
