// Package storage persists video resources. Two drivers are provided: a
// JSON-file datastore for development and tests, and a Postgres datastore for
// production deployments.
package storage

import (
	"context"
	"errors"

	"lumen-live/internal/models"
)

// ErrVideoNotFound is returned when no video exists for the requested id.
var ErrVideoNotFound = errors.New("video not found")

// CreateVideoParams carries the caller-supplied fields for a new video. An
// empty ID lets the store mint one.
type CreateVideoParams struct {
	ID          string
	Title       string
	Description string
	UploadState string
	LiveState   models.LiveState
	LiveInfo    *models.LiveInfo
}

// VideoUpdate mutates the named fields; nil pointers leave a field unchanged.
// ClearLiveInfo removes the live channel references regardless of LiveInfo.
type VideoUpdate struct {
	Title         *string
	Description   *string
	UploadState   *string
	LiveState     *models.LiveState
	LiveInfo      *models.LiveInfo
	ClearLiveInfo bool
}

// Repository exposes the datastore operations required by the API handlers
// and the lifecycle event path.
type Repository interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error

	CreateVideo(ctx context.Context, params CreateVideoParams) (models.Video, error)
	GetVideo(ctx context.Context, id string) (models.Video, error)
	ListVideos(ctx context.Context) ([]models.Video, error)
	UpdateVideo(ctx context.Context, id string, update VideoUpdate) (models.Video, error)
	UpdateVideoLiveState(ctx context.Context, id string, status models.LiveState) (models.Video, error)
	DeleteVideo(ctx context.Context, id string) error
}

var _ Repository = (*Storage)(nil)
