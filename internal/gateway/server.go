// Package gateway exposes the conversation loop over HTTP and WebSocket.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soyeahso/maitred/internal/config"
	"github.com/soyeahso/maitred/internal/hooks"
	"github.com/soyeahso/maitred/internal/logging"
	"github.com/soyeahso/maitred/internal/orchestrator"
	"github.com/soyeahso/maitred/internal/session"
)

const shutdownGrace = 10 * time.Second

// Server is the HTTP + WebSocket front of the assistant.
type Server struct {
	cfg       config.Config
	orch      *orchestrator.Orchestrator
	sessions  session.Store
	events    *hooks.Manager
	log       *logging.Logger
	startedAt time.Time

	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// New creates a gateway server.
func New(cfg config.Config, orch *orchestrator.Orchestrator, sessions session.Store, events *hooks.Manager, log *logging.Logger) *Server {
	return &Server{
		cfg:      cfg,
		orch:     orch,
		sessions: sessions,
		events:   events,
		log:      log.Sub("gateway"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully. The
// session sweeper runs for the lifetime of the server.
func (s *Server) Start(ctx context.Context) error {
	addr, err := s.cfg.Server.Addr()
	if err != nil {
		return err
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.startedAt = time.Now()

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go session.RunSweeper(sweepCtx, s.sessions, time.Minute, s.log)

	s.events.Emit(ctx, hooks.EventGatewayStart, map[string]any{"addr": addr})
	s.log.Info().Str("addr", addr).Msg("gateway listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("gateway shutting down")
	s.events.Emit(context.Background(), hooks.EventGatewayStop, nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
