package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/apiconf/ndu/internal/agent"
	"github.com/apiconf/ndu/internal/config"
	"github.com/apiconf/ndu/internal/log"
)

const (
	serviceName    = "ndu"
	serviceVersion = "0.1.0"

	maxChatBodyBytes = 1 << 20
)

type handlers struct {
	cfg       *config.Config
	assistant *agent.Assistant
	logger    log.Logger
}

// chatRequest is the POST /api/v1/chat body. Timestamp is unix milliseconds
// from the client's clock; TimezoneOffset matches JavaScript's
// Date.getTimezoneOffset(). Both are pointers because the time tag is only
// added when the client sent both fields; zero is a valid offset.
type chatRequest struct {
	Message        string `json:"message"`
	UserID         string `json:"user_id"`
	SessionID      string `json:"session_id"`
	Timestamp      *int64 `json:"timestamp"`
	TimezoneOffset *int   `json:"timezone_offset"`
}

func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large", h.logger)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", h.logger)
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message_required", "message must not be empty", h.logger)
		return
	}

	var tc *agent.TimeContext
	if req.Timestamp != nil && req.TimezoneOffset != nil {
		tc = &agent.TimeContext{TimestampMS: *req.Timestamp, OffsetMinutes: *req.TimezoneOffset}
	}

	result := h.assistant.Chat(r.Context(), agent.ChatRequest{
		Message:   req.Message,
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Time:      tc,
	})
	if !result.Success {
		writeJSON(w, http.StatusInternalServerError, errorEnvelope{
			Success:        false,
			Error:          "agent_failed",
			Message:        result.Response,
			SupportContact: result.SupportContact,
		}, h.logger)
		return
	}

	writeSuccess(w, http.StatusOK, result, "Message processed successfully", h.logger)
}

func (h *handlers) status(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, h.assistant.Status(), "Agent status retrieved successfully", h.logger)
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"service":     serviceName,
		"version":     serviceVersion,
		"environment": h.cfg.Environment,
		"timestamp":   time.Now().Format("2006-01-02 15:04:05"),
	}, "Service is healthy", h.logger)
}

func (h *handlers) info(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{
		"venue": map[string]any{
			"name":        h.cfg.VenueName,
			"address":     h.cfg.VenueAddress,
			"coordinates": h.cfg.VenueCoordinates,
		},
		"support": map[string]any{
			"phone": h.cfg.SupportPhone,
			"email": h.cfg.SupportEmail,
		},
		"agent_capabilities": []string{
			"Navigation and transportation assistance",
			"Speaker information and search",
			"Schedule management and recommendations",
			"General conference support",
			"Web scraping for real-time updates",
		},
	}, "Conference information retrieved successfully", h.logger)
}
