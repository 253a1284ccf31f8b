package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bobmcallan/stocktrader/internal/app"
	"github.com/bobmcallan/stocktrader/internal/common"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	idleTimeout       = 90 * time.Second

	// minWriteTimeout is the floor for a response. A valuation refreshes
	// every holding and then asks the rule service, so the budget grows
	// with the slowest downstream client.
	minWriteTimeout = 60 * time.Second
)

// Server serves the portfolio REST API for one App.
type Server struct {
	app          *app.App
	server       *http.Server
	logger       *common.Logger
	shutdownChan chan struct{}
}

// SetShutdownChannel sets the channel signaled when a shutdown is requested over HTTP.
func (s *Server) SetShutdownChannel(ch chan struct{}) {
	s.shutdownChan = ch
}

// NewServer builds the routed, middleware-wrapped portfolio API on the
// configured host and port. It does not listen until Start.
func NewServer(a *app.App) *Server {
	s := &Server{
		app:    a,
		logger: a.Logger,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port),
		Handler:           applyMiddleware(mux, a.Logger, a.Config),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout(a.Config),
		IdleTimeout:       idleTimeout,
	}

	return s
}

// writeTimeout allows four round trips of the slowest downstream client,
// never less than minWriteTimeout.
func writeTimeout(config *common.Config) time.Duration {
	slowest := config.Clients.StockQuote.GetTimeout()
	for _, d := range []time.Duration{
		config.Clients.ODM.GetTimeout(),
		config.Clients.TradeHistory.GetTimeout(),
		config.Clients.Gemini.GetTimeout(),
		config.Notify.GetTimeout(),
	} {
		if d > slowest {
			slowest = d
		}
	}
	if budget := 4 * slowest; budget > minWriteTimeout {
		return budget
	}
	return minWriteTimeout
}

// Handler exposes the full middleware chain, so tests can drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr is the host:port the server listens on.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start listens and serves until Shutdown. It always returns a non-nil
// error; http.ErrServerClosed follows a clean Shutdown.
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Dur("write_timeout", s.server.WriteTimeout).
		Msg("Starting portfolio API server")
	return s.server.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
