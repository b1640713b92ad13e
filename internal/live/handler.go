package live

import (
	"context"
	"fmt"
	"log/slog"

	"lumen-live/internal/medialive"
	"lumen-live/internal/models"
)

// PublishResult reports the state write performed for one lifecycle event.
type PublishResult struct {
	VideoID string           `json:"videoId"`
	Status  models.LiveState `json:"status"`
}

// StatePublisher persists a normalized live status for a video. The write
// must be last-write-wins per video id so that redelivered events are safe to
// re-process.
type StatePublisher interface {
	PublishLiveState(ctx context.Context, videoID string, status models.LiveState) (PublishResult, error)
}

// Handler processes channel lifecycle events. Collaborators are injected so
// the handler can run against test doubles; it holds no state between events.
type Handler struct {
	lookup    medialive.ChannelLookup
	publisher StatePublisher
	logger    *slog.Logger
}

// NewHandler wires the lookup gateway and state publisher into an event handler.
func NewHandler(lookup medialive.ChannelLookup, publisher StatePublisher, logger *slog.Logger) *Handler {
	return &Handler{lookup: lookup, publisher: publisher, logger: logger}
}

// Handle validates the event, resolves the channel to its owning video, and
// publishes the normalized status. Validation runs before any remote call and
// no side effects occur before the publish. Lookup failures propagate
// untranslated; publish failures are wrapped in PublishError so callers can
// tell a datastore fault apart from a gateway fault. Retries belong to the
// notifier's delivery semantics, not here.
func (h *Handler) Handle(ctx context.Context, event StateChangeEvent) (PublishResult, error) {
	rawState := event.Detail.State
	if !medialive.SupportedRawState(rawState) {
		return PublishResult{}, &medialive.UnsupportedStateError{State: rawState}
	}

	channelID, err := medialive.ParseChannelARN(event.Detail.ChannelARN)
	if err != nil {
		return PublishResult{}, err
	}

	if h.lookup == nil {
		return PublishResult{}, fmt.Errorf("live: channel lookup is not configured")
	}
	descriptor, err := h.lookup.DescribeChannel(ctx, channelID)
	if err != nil {
		return PublishResult{}, err
	}

	videoID := medialive.VideoIDFromChannelName(descriptor.Name)
	status, err := medialive.NormalizeState(rawState)
	if err != nil {
		return PublishResult{}, err
	}

	if h.publisher == nil {
		return PublishResult{}, fmt.Errorf("live: state publisher is not configured")
	}
	result, err := h.publisher.PublishLiveState(ctx, videoID, status)
	if err != nil {
		return PublishResult{}, &PublishError{VideoID: videoID, Err: err}
	}

	if h.logger != nil {
		h.logger.Info("published live state",
			"video_id", videoID,
			"status", status,
			"channel_id", channelID,
			"raw_state", rawState)
	}
	return result, nil
}
