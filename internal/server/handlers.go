package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bobmcallan/stocktrader/internal/models"
)

func (s *Server) handlePortfolioList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	portfolios, err := s.app.PortfolioService.ListPortfolios(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if portfolios == nil {
		portfolios = []*models.Portfolio{}
	}

	WriteJSON(w, http.StatusOK, portfolios)
}

// handlePortfolio serves create, value, trade and delete on a single owner.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request, owner string) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete) {
		return
	}

	var (
		portfolio *models.Portfolio
		err       error
	)

	switch r.Method {
	case http.MethodPost:
		portfolio, err = s.app.PortfolioService.CreatePortfolio(r.Context(), owner)
	case http.MethodGet:
		portfolio, err = s.app.PortfolioService.RefreshAndValue(r.Context(), owner)
	case http.MethodPut:
		symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))
		shares, perr := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("shares")))
		if symbol == "" || perr != nil {
			WriteErrorWithCode(w, http.StatusBadRequest, "symbol and integer shares query parameters are required", "invalid_input")
			return
		}
		portfolio, err = s.app.PortfolioService.ExecuteTrade(r.Context(), owner, symbol, shares)
	case http.MethodDelete:
		portfolio, err = s.app.PortfolioService.DeletePortfolio(r.Context(), owner)
	}

	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, portfolio)
}

func (s *Server) handlePortfolioFeedback(w http.ResponseWriter, r *http.Request, owner string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.FeedbackRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	feedback, err := s.app.PortfolioService.SubmitFeedback(r.Context(), owner, req.Text)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, feedback)
}

func (s *Server) handlePortfolioReturns(w http.ResponseWriter, r *http.Request, owner string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	returns, err := s.app.PortfolioService.GetReturns(r.Context(), owner)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(returns))
}
