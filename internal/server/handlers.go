package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"portfolioSim/internal/analytics"
	"portfolioSim/internal/app"
	"portfolioSim/internal/domain"
	"portfolioSim/internal/ports"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

type messageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type metricsResponse struct {
	Status string `json:"status"`
	analytics.Report
}

type chartResponse struct {
	Status string `json:"status"`
	analytics.ChartData
}

type tradesResponse struct {
	Status string               `json:"status"`
	Trades []domain.TradeRecord `json:"trades"`
}

type positionsResponse struct {
	Status    string                     `json:"status"`
	Positions map[string]domain.Position `json:"positions"`
}

type simulationResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Summary app.RunSummary `json:"summary"`
}

type catchUpResponse struct {
	Status  string           `json:"status"`
	Message string           `json:"message"`
	Days    []app.RunSummary `json:"days"`
}

type setCapitalRequest struct {
	Capital *float64 `json:"capital"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, metricsResponse{Status: statusSuccess, Report: s.sim.Metrics()})
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	trades := s.sim.Trades()
	if trades == nil {
		trades = []domain.TradeRecord{}
	}
	respondJSON(w, http.StatusOK, tradesResponse{Status: statusSuccess, Trades: trades})
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, positionsResponse{Status: statusSuccess, Positions: s.sim.Positions()})
}

func (s *Server) handleChartData(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, chartResponse{Status: statusSuccess, ChartData: s.sim.ChartData()})
}

func (s *Server) handleStartSimulation(w http.ResponseWriter, r *http.Request) {
	summary, err := s.sim.RunSimulation(r.Context())
	if err != nil {
		s.respondError(w, r, err, "Simulation run failed")
		return
	}
	respondJSON(w, http.StatusOK, simulationResponse{Status: statusSuccess, Message: "Simulation completed", Summary: summary})
}

func (s *Server) handleCatchUp(w http.ResponseWriter, r *http.Request) {
	days, err := s.sim.CatchUp(r.Context())
	if err != nil {
		s.respondError(w, r, err, "Catch-up failed")
		return
	}
	if days == nil {
		days = []app.RunSummary{}
	}
	respondJSON(w, http.StatusOK, catchUpResponse{Status: statusSuccess, Message: "Catch-up completed", Days: days})
}

func (s *Server) handleResetSimulation(w http.ResponseWriter, r *http.Request) {
	if err := s.sim.Reset(r.Context()); err != nil {
		s.respondError(w, r, err, "Simulation reset failed")
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Status: statusSuccess, Message: "Simulation reset successfully"})
}

func (s *Server) handleSetCapital(w http.ResponseWriter, r *http.Request) {
	var req setCapitalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondJSON(w, http.StatusBadRequest, errorResponse{Status: statusError, Error: "invalid JSON body"})
		return
	}
	capital := s.defaultCapital
	if req.Capital != nil {
		capital = *req.Capital
	}

	if err := s.sim.SetCapital(r.Context(), capital); err != nil {
		s.respondError(w, r, err, "Set capital failed")
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Status: statusSuccess, Message: "Capital set successfully"})
}

// respondError maps invalid input to 400 and everything else to 500.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := http.StatusInternalServerError
	if errors.Is(err, ports.ErrInvalidRequest) {
		status = http.StatusBadRequest
	}
	s.logger.Error(r.Context(), err, msg, map[string]interface{}{"path": r.URL.Path})
	respondJSON(w, status, errorResponse{Status: statusError, Error: err.Error()})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
