package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/bvmctl/internal/core"
	"github.com/nerrad567/bvmctl/internal/history"
	"github.com/nerrad567/bvmctl/internal/infrastructure/config"
	"github.com/nerrad567/bvmctl/internal/infrastructure/database"
	"github.com/nerrad567/bvmctl/internal/infrastructure/logging"
	"github.com/nerrad567/bvmctl/internal/monitor"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// statsBroadcastInterval is how often link counters are pushed to WebSocket
// clients subscribed to the link_stats channel.
const statsBroadcastInterval = 5 * time.Second

// LinkStatsSource exposes the device link counters. Satisfied by *monitor.Link.
type LinkStatsSource interface {
	Stats() monitor.LinkStats
}

// HistorySource serves recent state change records. Satisfied by
// *history.SQLiteRepository.
type HistorySource interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// MQTTStatus reports broker connectivity for the metrics endpoint.
type MQTTStatus interface {
	IsConnected() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Logger   *logging.Logger
	Store    *core.StateStore
	Queue    *core.CommandQueue
	Registry *core.WaiterRegistry

	// Optional dependencies. Endpoints and metrics sections degrade
	// individually when absent.
	Link    LinkStatsSource
	History HistorySource
	MQTT    MQTTStatus
	DB      *database.DB

	Version string
}

// Server is the HTTP API server for bvmctl.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg      config.APIConfig
	wsCfg    config.WebSocketConfig
	logger   *logging.Logger
	store    *core.StateStore
	queue    *core.CommandQueue
	registry *core.WaiterRegistry
	link     LinkStatsSource
	history  HistorySource
	mqtt     MQTTStatus
	db       *database.DB

	version   string
	startTime time.Time
	server    *http.Server
	hub       *Hub
	cancel    context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, store, queue, registry)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("state store is required")
	}
	if deps.Queue == nil {
		return nil, fmt.Errorf("command queue is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("waiter registry is required")
	}

	return &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		logger:   deps.Logger,
		store:    deps.Store,
		queue:    deps.Queue,
		registry: deps.Registry,
		link:     deps.Link,
		history:  deps.History,
		mqtt:     deps.MQTT,
		db:       deps.DB,
		version:  deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, and launches the HTTP
// listener in a background goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	s.startTime = time.Now()

	// Create internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)

	if s.link != nil {
		go s.broadcastStatsLoop(srvCtx)
	}

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server started", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Cancel background goroutines (hub, stats broadcast)
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}

// BroadcastState pushes a snapshot to WebSocket clients subscribed to the
// state channel. Registered as a dispatcher listener; Broadcast never blocks
// on slow clients.
func (s *Server) BroadcastState(state core.DeviceState) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(ChannelState, state)
}

// broadcastStatsLoop pushes link counters to subscribed WebSocket clients on
// a fixed interval.
func (s *Server) broadcastStatsLoop(ctx context.Context) {
	ticker := time.NewTicker(statsBroadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.hub.ClientCount() == 0 {
				continue
			}
			s.hub.Broadcast(ChannelLinkStats, s.link.Stats())
		}
	}
}
