package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"lumen-live/internal/models"
)

type dataset struct {
	Videos map[string]models.Video `json:"videos"`
}

func newDataset() dataset {
	return dataset{Videos: make(map[string]models.Video)}
}

// Storage is the JSON-file datastore. All state is held in memory under a
// RWMutex and flushed to disk after each mutation; an empty file path keeps
// the store purely in memory.
type Storage struct {
	mu       sync.RWMutex
	filePath string
	data     dataset
	// persistOverride allows tests to intercept persist operations.
	persistOverride func(dataset) error
	now             func() time.Time
}

// Option mutates storage configuration.
type Option func(*Storage)

// WithClock overrides the timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Storage) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStorage opens the datastore at path, loading existing data when the file
// is present.
func NewStorage(path string, opts ...Option) (*Storage, error) {
	s := &Storage{
		filePath: strings.TrimSpace(path),
		data:     newDataset(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.filePath != "" {
		if err := s.load(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NewJSONRepository opens the JSON-backed datastore and returns it as a
// Repository.
func NewJSONRepository(path string, opts ...Option) (Repository, error) {
	return NewStorage(path, opts...)
}

func (s *Storage) load() error {
	payload, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read datastore %s: %w", s.filePath, err)
	}
	if len(payload) == 0 {
		return nil
	}
	var data dataset
	if err := json.Unmarshal(payload, &data); err != nil {
		return fmt.Errorf("decode datastore %s: %w", s.filePath, err)
	}
	if data.Videos == nil {
		data.Videos = make(map[string]models.Video)
	}
	s.data = data
	return nil
}

// persist is called with the write lock held.
func (s *Storage) persist() error {
	if s.persistOverride != nil {
		return s.persistOverride(s.data)
	}
	if s.filePath == "" {
		return nil
	}
	payload, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode datastore: %w", err)
	}
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create datastore directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".videos-*.json")
	if err != nil {
		return fmt.Errorf("create datastore temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write datastore: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close datastore temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.filePath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace datastore %s: %w", s.filePath, err)
	}
	return nil
}

// Ping always succeeds for the JSON datastore.
func (s *Storage) Ping(context.Context) error {
	return nil
}

// Close flushes any pending state. The JSON store persists eagerly, so this
// is a no-op kept for interface symmetry with the Postgres driver.
func (s *Storage) Close(context.Context) error {
	return nil
}

// CreateVideo mints an id when none is supplied and stores the new record.
func (s *Storage) CreateVideo(_ context.Context, params CreateVideoParams) (models.Video, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return models.Video{}, fmt.Errorf("video title is required")
	}

	id := strings.TrimSpace(params.ID)
	if id == "" {
		id = uuid.NewString()
	}

	uploadState := params.UploadState
	if uploadState == "" {
		uploadState = models.UploadStatePending
	}
	liveState := params.LiveState
	if liveState == "" && params.LiveInfo != nil {
		liveState = models.LiveStateIdle
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data.Videos[id]; exists {
		return models.Video{}, fmt.Errorf("video %s already exists", id)
	}

	now := s.now()
	video := models.Video{
		ID:          id,
		Title:       title,
		Description: strings.TrimSpace(params.Description),
		UploadState: uploadState,
		LiveState:   liveState,
		LiveInfo:    cloneLiveInfo(params.LiveInfo),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.data.Videos[id] = video
	if err := s.persist(); err != nil {
		delete(s.data.Videos, id)
		return models.Video{}, err
	}
	return video, nil
}

// GetVideo returns the video for id or ErrVideoNotFound.
func (s *Storage) GetVideo(_ context.Context, id string) (models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	video, ok := s.data.Videos[id]
	if !ok {
		return models.Video{}, fmt.Errorf("video %s: %w", id, ErrVideoNotFound)
	}
	return video, nil
}

// ListVideos returns all videos ordered by creation time, oldest first.
func (s *Storage) ListVideos(context.Context) ([]models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	videos := make([]models.Video, 0, len(s.data.Videos))
	for _, video := range s.data.Videos {
		videos = append(videos, video)
	}
	sort.Slice(videos, func(i, j int) bool {
		if videos[i].CreatedAt.Equal(videos[j].CreatedAt) {
			return videos[i].ID < videos[j].ID
		}
		return videos[i].CreatedAt.Before(videos[j].CreatedAt)
	})
	return videos, nil
}

// UpdateVideo applies the update to the stored record.
func (s *Storage) UpdateVideo(_ context.Context, id string, update VideoUpdate) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.data.Videos[id]
	if !ok {
		return models.Video{}, fmt.Errorf("video %s: %w", id, ErrVideoNotFound)
	}

	previous := video
	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return models.Video{}, fmt.Errorf("video title is required")
		}
		video.Title = title
	}
	if update.Description != nil {
		video.Description = strings.TrimSpace(*update.Description)
	}
	if update.UploadState != nil {
		video.UploadState = *update.UploadState
	}
	if update.LiveState != nil {
		video.LiveState = *update.LiveState
	}
	if update.ClearLiveInfo {
		video.LiveInfo = nil
	} else if update.LiveInfo != nil {
		video.LiveInfo = cloneLiveInfo(update.LiveInfo)
	}
	video.UpdatedAt = s.now()

	s.data.Videos[id] = video
	if err := s.persist(); err != nil {
		s.data.Videos[id] = previous
		return models.Video{}, err
	}
	return video, nil
}

// UpdateVideoLiveState writes the normalized status onto the video record.
// The write is unconditional per id: redelivered lifecycle events resolve
// last-write-wins.
func (s *Storage) UpdateVideoLiveState(_ context.Context, id string, status models.LiveState) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.data.Videos[id]
	if !ok {
		return models.Video{}, fmt.Errorf("video %s: %w", id, ErrVideoNotFound)
	}
	previous := video
	video.LiveState = status
	video.UpdatedAt = s.now()
	s.data.Videos[id] = video
	if err := s.persist(); err != nil {
		s.data.Videos[id] = previous
		return models.Video{}, err
	}
	return video, nil
}

// DeleteVideo removes the record for id.
func (s *Storage) DeleteVideo(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.data.Videos[id]
	if !ok {
		return fmt.Errorf("video %s: %w", id, ErrVideoNotFound)
	}
	delete(s.data.Videos, id)
	if err := s.persist(); err != nil {
		s.data.Videos[id] = video
		return err
	}
	return nil
}

func cloneLiveInfo(info *models.LiveInfo) *models.LiveInfo {
	if info == nil {
		return nil
	}
	clone := *info
	if info.MediaLive.InputEndpoints != nil {
		clone.MediaLive.InputEndpoints = append([]string(nil), info.MediaLive.InputEndpoints...)
	}
	if info.MediaPackage.Endpoints != nil {
		clone.MediaPackage.Endpoints = make(map[string]string, len(info.MediaPackage.Endpoints))
		for k, v := range info.MediaPackage.Endpoints {
			clone.MediaPackage.Endpoints[k] = v
		}
	}
	return &clone
}
