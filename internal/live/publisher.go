package live

import (
	"context"
	"fmt"

	"lumen-live/internal/models"
)

// PublishError marks a failure while committing a normalized status, after
// validation and the channel lookup already succeeded. Unwrap exposes the
// cause so sentinel checks (such as a missing video) keep working.
type PublishError struct {
	VideoID string
	Err     error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish live state for video %s: %v", e.VideoID, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// VideoStateWriter is the slice of the datastore the publisher needs.
type VideoStateWriter interface {
	UpdateVideoLiveState(ctx context.Context, videoID string, status models.LiveState) (models.Video, error)
}

// StorePublisher commits normalized statuses to the video datastore. The
// underlying update is an unconditional keyed write, so redelivered or
// out-of-order events resolve last-write-wins per video.
type StorePublisher struct {
	Store VideoStateWriter
}

// PublishLiveState writes the status onto the video record identified by
// videoID and confirms the write.
func (p StorePublisher) PublishLiveState(ctx context.Context, videoID string, status models.LiveState) (PublishResult, error) {
	video, err := p.Store.UpdateVideoLiveState(ctx, videoID, status)
	if err != nil {
		return PublishResult{}, err
	}
	return PublishResult{VideoID: video.ID, Status: status}, nil
}
