package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"lumen-live/internal/live"
	"lumen-live/internal/medialive"
	"lumen-live/internal/observability/metrics"
	"lumen-live/internal/storage"
)

// Handler owns the HTTP surface of the service: video resources, the live
// control endpoints, and the lifecycle event webhook.
type Handler struct {
	Store      storage.Repository
	Channels   medialive.ChannelControl
	Events     *live.Handler
	EventToken string
	Metrics    *metrics.Recorder
	Logger     *slog.Logger
}

// NewHandler wires the datastore, channel control client, and lifecycle event
// handler into an API handler.
func NewHandler(store storage.Repository, channels medialive.ChannelControl, events *live.Handler) *Handler {
	return &Handler{Store: store, Channels: channels, Events: events}
}

func (h *Handler) logger() *slog.Logger {
	return h.Logger
}

func (h *Handler) metrics() *metrics.Recorder {
	if h.Metrics != nil {
		return h.Metrics
	}
	return metrics.Default()
}

// RequestError is the JSON error shape shared with server middleware.
type RequestError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

func (e RequestError) Error() string {
	return e.Message
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// WriteError is an exported helper for returning JSON API errors.
func WriteError(w http.ResponseWriter, status int, err error) {
	writeError(w, status, err)
}

func methodNotAllowed(w http.ResponseWriter, allowed string, method string) {
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", method))
}

// decodeJSON rejects unknown fields; used for request bodies this service owns.
func decodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// decodeJSONAllowUnknown tolerates extra fields; used for third-party
// payloads whose envelopes carry metadata this service ignores.
func decodeJSONAllowUnknown(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}
