package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"lumen-live/internal/models"
	"lumen-live/internal/storage"
)

type createVideoRequest struct {
	ID          string           `json:"id,omitempty"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	LiveInfo    *models.LiveInfo `json:"liveInfo,omitempty"`
}

// Videos handles the /api/videos collection.
func (h *Handler) Videos(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		videos, err := h.Store.ListVideos(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, videos)
	case http.MethodPost:
		var req createVideoRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		video, err := h.Store.CreateVideo(r.Context(), storage.CreateVideoParams{
			ID:          req.ID,
			Title:       req.Title,
			Description: req.Description,
			LiveInfo:    req.LiveInfo,
		})
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusCreated, video)
	default:
		methodNotAllowed(w, "GET, POST", r.Method)
	}
}

// VideoByID handles /api/videos/{id} and the live control subresources
// /api/videos/{id}/start-live and /api/videos/{id}/stop-live.
func (h *Handler) VideoByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/videos/")
	if rest == "" || rest == r.URL.Path {
		writeError(w, http.StatusNotFound, fmt.Errorf("video id is required"))
		return
	}
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if len(parts) == 2 && parts[1] != "" {
		switch parts[1] {
		case "start-live":
			h.startLive(w, r, id)
		case "stop-live":
			h.stopLive(w, r, id)
		default:
			writeError(w, http.StatusNotFound, fmt.Errorf("unknown video resource %q", parts[1]))
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		video, err := h.Store.GetVideo(r.Context(), id)
		if err != nil {
			writeError(w, videoErrorStatus(err), err)
			return
		}
		writeJSON(w, http.StatusOK, video)
	case http.MethodDelete:
		if err := h.Store.DeleteVideo(r.Context(), id); err != nil {
			writeError(w, videoErrorStatus(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, "GET, DELETE", r.Method)
	}
}

// startLive asks the encoding service to start the video's channel and marks
// the video as starting. The settled "live" state arrives later through the
// lifecycle webhook.
func (h *Handler) startLive(w http.ResponseWriter, r *http.Request, id string) {
	h.commandLive(w, r, id, "start")
}

// stopLive is symmetric with startLive; the settled "stopped" state arrives
// through the lifecycle webhook.
func (h *Handler) stopLive(w http.ResponseWriter, r *http.Request, id string) {
	h.commandLive(w, r, id, "stop")
}

func (h *Handler) commandLive(w http.ResponseWriter, r *http.Request, id, action string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST", r.Method)
		return
	}
	if h.Channels == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("channel control not configured"))
		return
	}

	video, err := h.Store.GetVideo(r.Context(), id)
	if err != nil {
		writeError(w, videoErrorStatus(err), err)
		return
	}
	channelID := video.ChannelID()
	if channelID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("video %s has no live channel", id))
		return
	}

	transitional := models.LiveStateStarting
	invoke := h.Channels.StartChannel
	if action == "stop" {
		transitional = models.LiveStateStopping
		invoke = h.Channels.StopChannel
	}

	h.metrics().ObserveControlCommand(action)
	if err := invoke(r.Context(), channelID); err != nil {
		h.metrics().ObserveControlFailure(action)
		if logger := h.logger(); logger != nil {
			logger.Error("channel command failed", "command", action, "video_id", id, "channel_id", channelID, "error", err)
		}
		writeError(w, http.StatusBadGateway, err)
		return
	}

	updated, err := h.Store.UpdateVideo(r.Context(), id, storage.VideoUpdate{LiveState: &transitional})
	if err != nil {
		writeError(w, videoErrorStatus(err), err)
		return
	}
	if logger := h.logger(); logger != nil {
		logger.Info("channel command accepted", "command", action, "video_id", id, "channel_id", channelID)
	}
	writeJSON(w, http.StatusOK, updated)
}

func videoErrorStatus(err error) int {
	if errors.Is(err, storage.ErrVideoNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
