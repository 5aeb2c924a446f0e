// Package agent hosts Ndu, the conversational assistant for API Conference
// Lagos 2025. The assistant wires per-user conversation history, message
// enrichment, the generation engine, and tool-output reconciliation into a
// single Chat entry point.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"

	"github.com/apiconf/ndu/internal/config"
	"github.com/apiconf/ndu/internal/log"
	"github.com/apiconf/ndu/internal/reconcile"
	"github.com/apiconf/ndu/internal/session"
	"github.com/apiconf/ndu/internal/tools"
)

const (
	// DefaultUserID is assumed when a chat request carries no user identity.
	DefaultUserID = "default_user"

	failureResponse = "I apologize, but I'm experiencing technical difficulties. " +
		"Please try again or contact the support team for assistance."
	emptyResponse = "I apologize, but I couldn't generate a response. Please try again."

	successConfidence = 0.9
	failureConfidence = 0.1
)

// ChatRequest is one user turn addressed to the assistant.
type ChatRequest struct {
	Message   string
	UserID    string
	SessionID string
	Time      *TimeContext

	// OnTextChunk, when non-nil, streams the model's raw text as it is
	// produced. The final Response may still differ when tool output
	// reconciliation replaces the model text.
	OnTextChunk func(text string)
}

// ChatResult is the assistant's reply for one turn.
type ChatResult struct {
	Success        bool           `json:"success"`
	Response       string         `json:"response"`
	UserID         string         `json:"user_id"`
	SessionID      string         `json:"session_id"`
	ToolsUsed      []string       `json:"tools_used,omitempty"`
	Confidence     float64        `json:"confidence"`
	Metadata       map[string]any `json:"metadata"`
	SupportContact string         `json:"support_contact,omitempty"`
}

// turnMetadata echoes the turn's identity and clock back to the client.
// The timestamp is the client's when supplied, otherwise the server's.
func turnMetadata(userID, sessionID string, tc *TimeContext) map[string]any {
	md := map[string]any{
		"user_id":    userID,
		"session_id": sessionID,
	}
	if tc != nil {
		md["timestamp"] = tc.TimestampMS
		md["timezone_offset"] = tc.OffsetMinutes
	} else {
		md["timestamp"] = time.Now().UnixMilli()
		md["timezone_offset"] = nil
	}
	return md
}

// Assistant is the top-level conversational service. It is safe for
// concurrent use; per-conversation ordering is the caller's concern.
type Assistant struct {
	cfg       *config.Config
	engine    Engine
	sessions  *session.Store
	system    string
	logger    log.Logger
	startedAt time.Time
}

func New(cfg *config.Config, engine Engine, sessions *session.Store, logger log.Logger) *Assistant {
	return &Assistant{
		cfg:       cfg,
		engine:    engine,
		sessions:  sessions,
		system:    SystemInstruction(cfg),
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Chat runs one turn: enrich the message, generate with tools available,
// reconcile any recorded tool output into the final response, and persist
// the exchange in the conversation history.
//
// Chat never returns an error to the caller for generation failures; those
// surface as a ChatResult with Success=false and a support contact.
func (a *Assistant) Chat(ctx context.Context, req ChatRequest) *ChatResult {
	userID := req.UserID
	if userID == "" {
		userID = DefaultUserID
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = "session_" + userID
	}

	conv := a.sessions.GetOrCreate(session.Key{UserID: userID, SessionID: sessionID})
	enriched := Enrich(req.Message, userID, req.Time)

	history := conv.History()
	messages := append(history, ai.NewUserMessage(ai.NewTextPart(enriched)))

	rec := &tools.Recorder{}
	turnCtx := tools.WithRecorder(ctx, rec)
	if a.cfg.TurnTimeout > 0 {
		var cancel context.CancelFunc
		turnCtx, cancel = context.WithTimeout(turnCtx, a.cfg.TurnTimeout)
		defer cancel()
	}

	result, err := a.engine.Generate(turnCtx, Request{
		System:      a.system,
		Messages:    messages,
		OnTextChunk: req.OnTextChunk,
	})
	if err != nil {
		a.logger.Error("chat turn failed", "user_id", userID, "session_id", sessionID, "error", err)
		md := turnMetadata(userID, sessionID, req.Time)
		md["error"] = err.Error()
		return &ChatResult{
			Success:        false,
			Response:       failureResponse,
			UserID:         userID,
			SessionID:      sessionID,
			ToolsUsed:      toolNames(rec.Outputs()),
			Confidence:     failureConfidence,
			Metadata:       md,
			SupportContact: a.cfg.SupportContact(),
		}
	}

	outputs := rec.Outputs()
	response := reconcile.Resolve(outputs, result.Text)
	if response == "" {
		response = emptyResponse
	}

	conv.Append(
		ai.NewUserMessage(ai.NewTextPart(enriched)),
		ai.NewModelMessage(ai.NewTextPart(response)),
	)

	a.logger.Info("chat turn complete",
		"user_id", userID,
		"session_id", sessionID,
		"tools_used", len(outputs),
		"history_len", conv.Len())

	toolsUsed := toolNames(outputs)
	md := turnMetadata(userID, sessionID, req.Time)
	md["tools_used"] = toolsUsed

	return &ChatResult{
		Success:    true,
		Response:   response,
		UserID:     userID,
		SessionID:  sessionID,
		ToolsUsed:  toolsUsed,
		Confidence: successConfidence,
		Metadata:   md,
	}
}

// Status reports liveness details for the status endpoint.
func (a *Assistant) Status() map[string]any {
	return map[string]any{
		"status":             "active",
		"agent_name":         "Ndu",
		"venue":              a.cfg.VenueName,
		"dates":              a.cfg.ConferenceDates,
		"speakers_announced": true,
		"total_speakers":     44,
		"active_sessions":    a.sessions.Count(),
		"uptime":             a.Uptime(),
	}
}

// Uptime renders service uptime as fractional hours, e.g. "3.5 hours".
func (a *Assistant) Uptime() string {
	return fmt.Sprintf("%.1f hours", time.Since(a.startedAt).Hours())
}

func toolNames(outputs []reconcile.Output) []string {
	if len(outputs) == 0 {
		return nil
	}
	names := make([]string, 0, len(outputs))
	seen := make(map[string]bool, len(outputs))
	for _, out := range outputs {
		if !seen[out.Tool] {
			seen[out.Tool] = true
			names = append(names, out.Tool)
		}
	}
	return names
}
