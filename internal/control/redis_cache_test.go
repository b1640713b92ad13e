package control

import (
	"context"
	"testing"
	"time"

	"lumen-live/internal/models"
	"lumen-live/internal/testsupport/redisstub"
)

func startCache(t *testing.T, opts redisstub.Options, cfg RedisCacheConfig) (*RedisCache, *redisstub.Server) {
	t.Helper()
	stub, err := redisstub.Start(opts)
	if err != nil {
		t.Fatalf("start redis stub: %v", err)
	}
	t.Cleanup(func() { _ = stub.Close() })

	cfg.Addr = stub.Addr()
	cache, err := NewRedisCache(cfg)
	if err != nil {
		t.Fatalf("new redis cache: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache, stub
}

func TestRedisCachePutAndGet(t *testing.T) {
	cache, _ := startCache(t, redisstub.Options{}, RedisCacheConfig{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	video := models.Video{
		ID:          "video-id",
		Title:       "Town hall",
		UploadState: models.UploadStateReady,
		LiveState:   models.LiveStateLive,
	}
	if err := cache.Put(ctx, video); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := cache.Get(ctx, "video-id")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("expected cached video")
	}
	if got.LiveState != models.LiveStateLive || got.Title != "Town hall" {
		t.Fatalf("unexpected cached video %+v", got)
	}
}

func TestRedisCacheGetMissIsNotAnError(t *testing.T) {
	cache, _ := startCache(t, redisstub.Options{}, RedisCacheConfig{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, ok, err := cache.Get(ctx, "absent")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected miss for absent key")
	}
}

func TestRedisCacheAuthenticatesAndPings(t *testing.T) {
	cache, _ := startCache(t, redisstub.Options{Password: "hunter2"}, RedisCacheConfig{Password: "hunter2"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := cache.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestRedisCacheUsesKeyPrefix(t *testing.T) {
	cache, stub := startCache(t, redisstub.Options{}, RedisCacheConfig{KeyPrefix: "custom:"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := cache.Put(ctx, models.Video{ID: "abc", UploadState: models.UploadStatePending}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok := stub.Value("custom:abc"); !ok {
		t.Fatal("expected value stored under prefixed key")
	}
}

func TestNewRedisCacheRequiresAddr(t *testing.T) {
	t.Parallel()

	if _, err := NewRedisCache(RedisCacheConfig{}); err == nil {
		t.Fatal("expected error for missing address")
	}
}
