package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"statusboard/internal/syncloop"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

const (
	defaultCycleLimit = 20
	maxCycleLimit     = 200
)

func (s *Server) handleBoardPage(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, s.board.Snapshot()); err != nil {
		s.logger.Error("failed to render board page", zap.Error(err))
		http.Error(w, "could not render board", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleBoardJSON(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, s.board.Snapshot())
}

// handleRefresh runs a cycle that outlives a disconnecting client; the loop
// bounds it with the fetch timeout.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	err := s.loop.FetchAndRender(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, syncloop.ErrCycleInProgress):
		s.respondWithError(w, http.StatusConflict, err.Error())
	case err != nil:
		s.respondWithJSON(w, http.StatusBadGateway, map[string]any{
			"error": err.Error(),
			"board": s.board.Snapshot(),
		})
	default:
		s.respondWithJSON(w, http.StatusOK, s.board.Snapshot())
	}
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.respondWithError(w, http.StatusNotFound, "cycle history is not configured")
		return
	}

	limit := defaultCycleLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxCycleLimit)
	}

	cycles, err := s.history.RecentCycles(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list cycles", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "could not retrieve cycles")
		return
	}
	s.respondWithJSON(w, http.StatusOK, cycles)
}

func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	if s.capturer == nil {
		s.respondWithError(w, http.StatusNotFound, "screenshots are disabled")
		return
	}

	png, err := s.capturer.Capture(r.Context(), s.config.PublicURL)
	if err != nil {
		s.logger.Error("failed to capture board screenshot", zap.Error(err))
		s.respondWithError(w, http.StatusBadGateway, "could not capture screenshot")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	healthStatus := map[string]string{"board": string(s.board.Snapshot().Kind)}
	healthy := true
	for name, p := range s.checks {
		if err := p.Ping(ctx); err != nil {
			healthStatus[name] = "unhealthy"
			healthy = false
			s.logger.Error("health check failed", zap.String("dependency", name), zap.Error(err))
			continue
		}
		healthStatus[name] = "healthy"
	}

	if !healthy {
		s.respondWithJSON(w, http.StatusServiceUnavailable, healthStatus)
		return
	}
	s.respondWithJSON(w, http.StatusOK, healthStatus)
}

// --- Helper Functions ---

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := sonic.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
