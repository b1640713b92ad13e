package control

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lumen-live/internal/models"
)

const defaultClientTimeout = 10 * time.Second

// LiveCommander issues start/stop commands for a video's live channel and
// returns the server's authoritative post-command resource.
type LiveCommander interface {
	StartLive(ctx context.Context, video models.Video) (models.Video, error)
	StopLive(ctx context.Context, video models.Video) (models.Video, error)
}

// ClientConfig configures the HTTP commander for the video API.
type ClientConfig struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements LiveCommander against the video API.
type Client struct {
	config ClientConfig
}

// NewClient validates the configuration and returns an API commander.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("control: base URL is required")
	}
	return &Client{config: cfg}, nil
}

// StartLive requests that the video's channel be started.
func (c *Client) StartLive(ctx context.Context, video models.Video) (models.Video, error) {
	return c.command(ctx, video, "start-live")
}

// StopLive requests that the video's channel be stopped.
func (c *Client) StopLive(ctx context.Context, video models.Video) (models.Video, error) {
	return c.command(ctx, video, "stop-live")
}

func (c *Client) command(ctx context.Context, video models.Video, action string) (models.Video, error) {
	if strings.TrimSpace(video.ID) == "" {
		return models.Video{}, fmt.Errorf("control: video id is required")
	}
	url := fmt.Sprintf("%s/api/videos/%s/%s", strings.TrimRight(c.config.BaseURL, "/"), video.ID, action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return models.Video{}, err
	}
	if token := strings.TrimSpace(c.config.Token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	httpClient := c.config.HTTPClient
	if httpClient == nil {
		timeout := c.config.Timeout
		if timeout <= 0 {
			timeout = defaultClientTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return models.Video{}, fmt.Errorf("%s %s: %w", action, video.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		detail := strings.TrimSpace(string(body))
		if detail == "" {
			return models.Video{}, fmt.Errorf("%s %s: status %d", action, video.ID, resp.StatusCode)
		}
		return models.Video{}, fmt.Errorf("%s %s: status %d: %s", action, video.ID, resp.StatusCode, detail)
	}

	var updated models.Video
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		return models.Video{}, fmt.Errorf("decode %s response for %s: %w", action, video.ID, err)
	}
	return updated, nil
}
