// Package api exposes the assistant over a JSON HTTP surface: one chat
// endpoint plus status, health and conference-info probes.
package api

import (
	"errors"
	"net/http"

	"github.com/apiconf/ndu/internal/agent"
	"github.com/apiconf/ndu/internal/config"
	"github.com/apiconf/ndu/internal/log"
)

const defaultRateBurst = 60

// ServerConfig carries everything needed to build the HTTP surface.
type ServerConfig struct {
	Config    *config.Config
	Assistant *agent.Assistant
	Logger    log.Logger
}

// Server is the JSON API HTTP server.
type Server struct {
	handler http.Handler
}

// NewServer wires routes and the middleware stack. The stack, outermost
// first: recovery, request ID, logging, CORS, rate limit.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Config == nil {
		return nil, errors.New("config is required")
	}
	if cfg.Assistant == nil {
		return nil, errors.New("assistant is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	h := &handlers{
		cfg:       cfg.Config,
		assistant: cfg.Assistant,
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat", h.chat)
	mux.HandleFunc("GET /api/v1/status", h.status)
	mux.HandleFunc("GET /api/v1/health", h.health)
	mux.HandleFunc("GET /api/v1/info", h.info)

	burst := cfg.Config.RateBurst
	if burst <= 0 {
		burst = defaultRateBurst
	}
	rl := newRateLimiter(1.0, burst)

	// CORS sits outside the rate limiter so preflight OPTIONS always gets
	// its headers; request ID sits outside logging so the ID is available
	// in log attributes.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, logger)(handler)
	handler = corsMiddleware(cfg.Config.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	return &Server{handler: handler}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}
