package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bobmcallan/stocktrader/internal/common"
)

// readinessTimeout bounds the store ping behind /api/health/ready.
const readinessTimeout = 2 * time.Second

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health/ready", s.handleReady)
	mux.HandleFunc("/api/health/live", s.handleLive)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Portfolios
	mux.HandleFunc("/api/portfolios/", s.routePortfolios)
	mux.HandleFunc("/api/portfolios", s.handlePortfolioList)
}

// routePortfolios dispatches /api/portfolios/{owner}[/feedback|/returns].
func (s *Server) routePortfolios(w http.ResponseWriter, r *http.Request) {
	owner := PathParam(r, "/api/portfolios/", "")
	if owner == "" {
		s.handlePortfolioList(w, r)
		return
	}

	subpath := PathParam(r, "/api/portfolios/"+owner+"/", "")

	switch subpath {
	case "":
		s.handlePortfolio(w, r, owner)
	case "feedback":
		s.handlePortfolioFeedback(w, r, owner)
	case "returns":
		s.handlePortfolioReturns(w, r, owner)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// handleReady reports whether the portfolio store is reachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := s.app.Store.Ping(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Readiness check failed")
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down", "error": err.Error()})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "up"})
}

// handleLive reports down once consecutive request errors reach the threshold.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	errs := s.app.Health.Consecutive()
	if !s.app.Health.Alive() {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "down", "consecutive_errors": errs})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"status": "up", "consecutive_errors": errs})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, common.GetVersionInfo())
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}
