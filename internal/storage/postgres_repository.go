package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lumen-live/internal/models"
)

const videosSchema = `
CREATE TABLE IF NOT EXISTS videos (
    id           TEXT PRIMARY KEY,
    title        TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    upload_state TEXT NOT NULL DEFAULT 'pending',
    live_state   TEXT NOT NULL DEFAULT '',
    live_info    JSONB,
    created_at   TIMESTAMPTZ NOT NULL,
    updated_at   TIMESTAMPTZ NOT NULL
)`

const videoColumns = "id, title, description, upload_state, live_state, live_info, created_at, updated_at"

type postgresRepository struct {
	pool *pgxpool.Pool
	cfg  PostgresConfig
}

// NewPostgresRepository opens a Postgres-backed repository and ensures the
// videos table exists.
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres dsn required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = cfg.MaxConnections
	}
	if cfg.MinConnections > 0 {
		poolCfg.MinConns = cfg.MinConnections
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheckInterval > 0 {
		poolCfg.HealthCheckPeriod = cfg.HealthCheckInterval
	}
	if cfg.AcquireTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.AcquireTimeout
	}
	if cfg.ApplicationName != "" {
		if poolCfg.ConnConfig.RuntimeParams == nil {
			poolCfg.ConnConfig.RuntimeParams = make(map[string]string)
		}
		poolCfg.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	repo := &postgresRepository{pool: pool, cfg: cfg}
	if err := repo.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return repo, nil
}

func (r *postgresRepository) ensureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, videosSchema); err != nil {
		return fmt.Errorf("ensure videos schema: %w", err)
	}
	return nil
}

func (r *postgresRepository) Ping(ctx context.Context) error {
	if r == nil || r.pool == nil {
		return fmt.Errorf("postgres pool is not configured")
	}
	return r.pool.Ping(ctx)
}

func (r *postgresRepository) Close(ctx context.Context) error {
	if r == nil || r.pool == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		r.pool.Close()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

type videoRow struct {
	id          string
	title       string
	description string
	uploadState string
	liveState   string
	liveInfo    []byte
	createdAt   time.Time
	updatedAt   time.Time
}

func scanVideo(row pgx.Row) (models.Video, error) {
	var rec videoRow
	if err := row.Scan(&rec.id, &rec.title, &rec.description, &rec.uploadState, &rec.liveState, &rec.liveInfo, &rec.createdAt, &rec.updatedAt); err != nil {
		return models.Video{}, err
	}
	video := models.Video{
		ID:          rec.id,
		Title:       rec.title,
		Description: rec.description,
		UploadState: rec.uploadState,
		LiveState:   models.LiveState(rec.liveState),
		CreatedAt:   rec.createdAt,
		UpdatedAt:   rec.updatedAt,
	}
	if len(rec.liveInfo) > 0 {
		var info models.LiveInfo
		if err := json.Unmarshal(rec.liveInfo, &info); err != nil {
			return models.Video{}, fmt.Errorf("decode live info for %s: %w", rec.id, err)
		}
		video.LiveInfo = &info
	}
	return video, nil
}

func encodeLiveInfo(info *models.LiveInfo) ([]byte, error) {
	if info == nil {
		return nil, nil
	}
	payload, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("encode live info: %w", err)
	}
	return payload, nil
}

func (r *postgresRepository) CreateVideo(ctx context.Context, params CreateVideoParams) (models.Video, error) {
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
	liveInfo, err := encodeLiveInfo(params.LiveInfo)
	if err != nil {
		return models.Video{}, err
	}

	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO videos (id, title, description, upload_state, live_state, live_info, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING `+videoColumns,
		id, title, strings.TrimSpace(params.Description), uploadState, string(liveState), liveInfo, now)
	video, err := scanVideo(row)
	if err != nil {
		return models.Video{}, fmt.Errorf("create video: %w", err)
	}
	return video, nil
}

func (r *postgresRepository) GetVideo(ctx context.Context, id string) (models.Video, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id)
	video, err := scanVideo(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Video{}, fmt.Errorf("video %s: %w", id, ErrVideoNotFound)
	}
	if err != nil {
		return models.Video{}, fmt.Errorf("get video %s: %w", id, err)
	}
	return video, nil
}

func (r *postgresRepository) ListVideos(ctx context.Context) ([]models.Video, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+videoColumns+` FROM videos ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	videos := make([]models.Video, 0)
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("list videos: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}

func (r *postgresRepository) UpdateVideo(ctx context.Context, id string, update VideoUpdate) (models.Video, error) {
	current, err := r.GetVideo(ctx, id)
	if err != nil {
		return models.Video{}, err
	}

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return models.Video{}, fmt.Errorf("video title is required")
		}
		current.Title = title
	}
	if update.Description != nil {
		current.Description = strings.TrimSpace(*update.Description)
	}
	if update.UploadState != nil {
		current.UploadState = *update.UploadState
	}
	if update.LiveState != nil {
		current.LiveState = *update.LiveState
	}
	if update.ClearLiveInfo {
		current.LiveInfo = nil
	} else if update.LiveInfo != nil {
		current.LiveInfo = update.LiveInfo
	}

	liveInfo, err := encodeLiveInfo(current.LiveInfo)
	if err != nil {
		return models.Video{}, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE videos
		SET title = $2, description = $3, upload_state = $4, live_state = $5, live_info = $6, updated_at = $7
		WHERE id = $1
		RETURNING `+videoColumns,
		id, current.Title, current.Description, current.UploadState, string(current.LiveState), liveInfo, time.Now().UTC())
	video, err := scanVideo(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Video{}, fmt.Errorf("video %s: %w", id, ErrVideoNotFound)
	}
	if err != nil {
		return models.Video{}, fmt.Errorf("update video %s: %w", id, err)
	}
	return video, nil
}

// UpdateVideoLiveState is an unconditional keyed write so that redelivered
// lifecycle events resolve last-write-wins per video.
func (r *postgresRepository) UpdateVideoLiveState(ctx context.Context, id string, status models.LiveState) (models.Video, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE videos
		SET live_state = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+videoColumns,
		id, string(status), time.Now().UTC())
	video, err := scanVideo(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Video{}, fmt.Errorf("video %s: %w", id, ErrVideoNotFound)
	}
	if err != nil {
		return models.Video{}, fmt.Errorf("update live state for %s: %w", id, err)
	}
	return video, nil
}

func (r *postgresRepository) DeleteVideo(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("video %s: %w", id, ErrVideoNotFound)
	}
	return nil
}
