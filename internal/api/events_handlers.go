package api

import (
	"errors"
	"fmt"
	"net/http"

	"lumen-live/internal/live"
	"lumen-live/internal/medialive"
	"lumen-live/internal/storage"
)

// MediaLiveEvent receives channel lifecycle notifications pushed by the
// encoding service's event bus. Processing errors are returned to the
// notifier, never swallowed, so its redelivery and alerting policy can act.
func (h *Handler) MediaLiveEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST", r.Method)
		return
	}
	if !h.eventAuthorized(r) {
		if logger := h.logger(); logger != nil {
			logger.Warn("lifecycle event rejected token", "path", r.URL.Path, "remote", r.RemoteAddr)
		}
		writeError(w, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
		return
	}
	if h.Events == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("lifecycle handler not configured"))
		return
	}

	var event live.StateChangeEvent
	if err := decodeJSONAllowUnknown(r, &event); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.Events.Handle(r.Context(), event)
	if err != nil {
		h.metrics().ObserveLifecycleEvent(event.Detail.State, "error")
		if logger := h.logger(); logger != nil {
			logger.Error("lifecycle event failed",
				"channel_arn", event.Detail.ChannelARN,
				"raw_state", event.Detail.State,
				"error", err)
		}
		writeError(w, lifecycleEventStatus(err), err)
		return
	}

	h.metrics().ObserveLifecycleEvent(event.Detail.State, "published")
	h.metrics().LiveStatePublished(result.Status)
	writeJSON(w, http.StatusOK, result)
}

// lifecycleEventStatus maps handler failures onto webhook response codes:
// invalid events are the notifier's fault (400), an unknown video means the
// channel no longer maps to a resource (404), a failed state write is our
// fault (500), and upstream lookup failures are a gateway fault (502).
func lifecycleEventStatus(err error) int {
	var unsupported *medialive.UnsupportedStateError
	var malformed *medialive.MalformedReferenceError
	var publish *live.PublishError
	switch {
	case errors.As(err, &unsupported), errors.As(err, &malformed):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrVideoNotFound):
		return http.StatusNotFound
	case errors.As(err, &publish):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
