package control

import (
	"context"
	"errors"
	"testing"

	"lumen-live/internal/models"
)

type fakeCommander struct {
	result  models.Video
	err     error
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (f *fakeCommander) StartLive(ctx context.Context, video models.Video) (models.Video, error) {
	return f.invoke(ctx, video)
}

func (f *fakeCommander) StopLive(ctx context.Context, video models.Video) (models.Video, error) {
	return f.invoke(ctx, video)
}

func (f *fakeCommander) invoke(_ context.Context, _ models.Video) (models.Video, error) {
	f.calls++
	if f.entered != nil {
		close(f.entered)
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return models.Video{}, f.err
	}
	return f.result, nil
}

func testVideo() models.Video {
	return models.Video{
		ID:          "video-id",
		Title:       "Town hall",
		LiveState:   models.LiveStateIdle,
		UploadState: models.UploadStateReady,
	}
}

func TestStartLiveMergesResultAndReturnsIdle(t *testing.T) {
	t.Parallel()

	updated := testVideo()
	updated.LiveState = models.LiveStateStarting
	commander := &fakeCommander{result: updated}
	cache := NewMemoryCache()

	controller, err := NewController(ControllerConfig{
		Video:     testVideo(),
		Commander: commander,
		Cache:     cache,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := controller.StartLive(context.Background()); err != nil {
		t.Fatalf("start live: %v", err)
	}

	if controller.State() != StateIdle {
		t.Fatalf("expected idle after success, got %v", controller.State())
	}
	if controller.Video().LiveState != models.LiveStateStarting {
		t.Fatalf("expected merged live state, got %q", controller.Video().LiveState)
	}

	cached, ok, err := cache.Get(context.Background(), "video-id")
	if err != nil || !ok {
		t.Fatalf("expected cached video, got ok=%v err=%v", ok, err)
	}
	if cached.LiveState != models.LiveStateStarting {
		t.Fatalf("expected cache to hold server result, got %q", cached.LiveState)
	}
}

func TestFailureRedirectsAndLeavesCacheUntouched(t *testing.T) {
	t.Parallel()

	commander := &fakeCommander{err: errors.New("status 502")}
	cache := NewMemoryCache()
	var navigated string

	controller, err := NewController(ControllerConfig{
		Video:     testVideo(),
		Commander: commander,
		Cache:     cache,
		Navigate:  func(route string) { navigated = route },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = controller.StopLive(context.Background())
	if !errors.Is(err, ErrCommandFailed) {
		t.Fatalf("expected ErrCommandFailed, got %v", err)
	}
	if controller.State() != StateError {
		t.Fatalf("expected error state, got %v", controller.State())
	}
	if navigated != "/errors/liveInit" {
		t.Fatalf("expected redirect to /errors/liveInit, got %q", navigated)
	}
	if _, ok, _ := cache.Get(context.Background(), "video-id"); ok {
		t.Fatal("expected cache to stay untouched on failure")
	}
	if controller.Video().LiveState != models.LiveStateIdle {
		t.Fatalf("expected local video unchanged, got %q", controller.Video().LiveState)
	}
}

func TestFailedControllerRejectsFurtherCommands(t *testing.T) {
	t.Parallel()

	commander := &fakeCommander{err: errors.New("boom")}
	controller, err := NewController(ControllerConfig{
		Video:     testVideo(),
		Commander: commander,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := controller.StartLive(context.Background()); !errors.Is(err, ErrCommandFailed) {
		t.Fatalf("expected ErrCommandFailed, got %v", err)
	}
	if err := controller.StartLive(context.Background()); !errors.Is(err, ErrControllerFailed) {
		t.Fatalf("expected ErrControllerFailed, got %v", err)
	}
	if commander.calls != 1 {
		t.Fatalf("expected single command attempt, got %d", commander.calls)
	}
}

func TestTriggerWhilePendingIsRejected(t *testing.T) {
	t.Parallel()

	commander := &fakeCommander{
		result:  testVideo(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	controller, err := NewController(ControllerConfig{
		Video:     testVideo(),
		Commander: commander,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- controller.StartLive(context.Background())
	}()

	<-commander.entered
	if controller.State() != StatePending {
		t.Fatalf("expected pending while in flight, got %v", controller.State())
	}
	if err := controller.StartLive(context.Background()); !errors.Is(err, ErrCommandInFlight) {
		t.Fatalf("expected ErrCommandInFlight, got %v", err)
	}

	close(commander.release)
	if err := <-done; err != nil {
		t.Fatalf("first command: %v", err)
	}
	if controller.State() != StateIdle {
		t.Fatalf("expected idle after completion, got %v", controller.State())
	}
}

func TestCacheFailureDoesNotFailCommand(t *testing.T) {
	t.Parallel()

	updated := testVideo()
	updated.LiveState = models.LiveStateStopping
	commander := &fakeCommander{result: updated}

	controller, err := NewController(ControllerConfig{
		Video:     testVideo(),
		Commander: commander,
		Cache:     failingCache{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := controller.StopLive(context.Background()); err != nil {
		t.Fatalf("expected success despite cache failure, got %v", err)
	}
	if controller.State() != StateIdle {
		t.Fatalf("expected idle, got %v", controller.State())
	}
	if controller.Video().LiveState != models.LiveStateStopping {
		t.Fatalf("expected merged state, got %q", controller.Video().LiveState)
	}
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) (models.Video, bool, error) {
	return models.Video{}, false, errors.New("cache down")
}

func (failingCache) Put(context.Context, models.Video) error {
	return errors.New("cache down")
}

func (failingCache) Ping(context.Context) error {
	return errors.New("cache down")
}

func TestNewControllerValidatesConfig(t *testing.T) {
	t.Parallel()

	if _, err := NewController(ControllerConfig{Commander: &fakeCommander{}}); err == nil {
		t.Fatal("expected error for missing video id")
	}
	if _, err := NewController(ControllerConfig{Video: testVideo()}); err == nil {
		t.Fatal("expected error for missing commander")
	}
}
