package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/apiconf/ndu/internal/log"
)

// successEnvelope wraps every successful API payload.
type successEnvelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// errorEnvelope is the error counterpart. SupportContact is included when
// the caller should escalate to a human.
type errorEnvelope struct {
	Success        bool   `json:"success"`
	Error          string `json:"error"`
	Message        string `json:"message,omitempty"`
	SupportContact string `json:"support_contact,omitempty"`
}

// writeJSON encodes to a buffer before touching the ResponseWriter so a
// failed encode can still produce a clean 500.
func writeJSON(w http.ResponseWriter, status int, data any, logger log.Logger) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		logger.Error("encoding JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		// Client disconnects are routine.
		logger.Debug("writing response body", "error", err)
	}
}

func writeSuccess(w http.ResponseWriter, status int, data any, message string, logger log.Logger) {
	writeJSON(w, status, successEnvelope{Success: true, Data: data, Message: message}, logger)
}

func writeError(w http.ResponseWriter, status int, code, message string, logger log.Logger) {
	writeJSON(w, status, errorEnvelope{Success: false, Error: code, Message: message}, logger)
}
