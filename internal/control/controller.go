package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"lumen-live/internal/models"
)

// RouteCodeLiveInit tags the error surface reached when a live command fails.
const RouteCodeLiveInit = "liveInit"

// ErrorRoute builds the error surface route for a failure context tag.
func ErrorRoute(code string) string {
	return "/errors/" + code
}

// ErrCommandFailed is the only failure a caller sees from a rejected command;
// the underlying cause is logged and otherwise discarded.
var ErrCommandFailed = errors.New("control: live command failed")

// Navigator receives the route the controller redirects to on failure.
type Navigator func(route string)

// ControllerConfig wires a controller to one video resource.
type ControllerConfig struct {
	Video     models.Video
	Commander LiveCommander
	Cache     VideoCache
	Navigate  Navigator
	Logger    *slog.Logger
}

// Controller runs start/stop live commands for a single video, keeping the
// pending/error lifecycle explicit. One command may be in flight at a time;
// after a failure the controller is terminal.
type Controller struct {
	commander LiveCommander
	cache     VideoCache
	navigate  Navigator
	logger    *slog.Logger

	machine Machine

	mu    sync.Mutex
	video models.Video
}

// NewController validates the configuration and binds a controller to a video.
func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.Video.ID == "" {
		return nil, fmt.Errorf("control: video id is required")
	}
	if cfg.Commander == nil {
		return nil, fmt.Errorf("control: commander is required")
	}
	return &Controller{
		commander: cfg.Commander,
		cache:     cfg.Cache,
		navigate:  cfg.Navigate,
		logger:    cfg.Logger,
		video:     cfg.Video,
	}, nil
}

// State exposes the current command lifecycle state.
func (c *Controller) State() State {
	return c.machine.State()
}

// Video returns the controller's current view of the resource.
func (c *Controller) Video() models.Video {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.video
}

// StartLive issues the start command.
func (c *Controller) StartLive(ctx context.Context) error {
	return c.run(ctx, "start", c.commander.StartLive)
}

// StopLive issues the stop command.
func (c *Controller) StopLive(ctx context.Context) error {
	return c.run(ctx, "stop", c.commander.StopLive)
}

// run transitions to Pending before the remote call is made. On success the
// server-returned resource is merged into the shared cache and the controller
// returns to Idle; on failure the cache is untouched, the controller becomes
// terminal, and the caller is redirected to the liveInit error surface.
func (c *Controller) run(ctx context.Context, command string, invoke func(context.Context, models.Video) (models.Video, error)) error {
	if err := c.machine.Trigger(); err != nil {
		return err
	}

	updated, err := invoke(ctx, c.Video())
	if err != nil {
		_ = c.machine.Fail()
		if c.logger != nil {
			c.logger.Error("live command failed", "command", command, "video_id", c.Video().ID, "error", err)
		}
		if c.navigate != nil {
			c.navigate(ErrorRoute(RouteCodeLiveInit))
		}
		return ErrCommandFailed
	}

	if c.cache != nil {
		if err := c.cache.Put(ctx, updated); err != nil && c.logger != nil {
			// The command itself succeeded; observers fall back to the store.
			c.logger.Warn("video cache update failed", "video_id", updated.ID, "error", err)
		}
	}

	c.mu.Lock()
	c.video = updated
	c.mu.Unlock()

	if err := c.machine.Succeed(); err != nil {
		return err
	}
	if c.logger != nil {
		c.logger.Info("live command completed", "command", command, "video_id", updated.ID, "live_state", updated.LiveState)
	}
	return nil
}
