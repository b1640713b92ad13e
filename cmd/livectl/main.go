// Command livectl drives the start/stop live lifecycle for a single video
// from the terminal, mirroring what the dashboard buttons do.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"lumen-live/internal/config"
	"lumen-live/internal/control"
	"lumen-live/internal/models"
	"lumen-live/internal/observability/logging"
)

func main() {
	var (
		configPath    string
		serverURL     string
		token         string
		videoID       string
		timeout       time.Duration
		redisAddr     string
		redisUsername string
		redisPassword string
		redisDB       int
		redisPrefix   string
		redisTTL      time.Duration
		logLevel      string
	)

	flag.StringVar(&configPath, "config", "", "path to TOML configuration file")
	flag.StringVar(&serverURL, "url", "http://127.0.0.1:8080", "Base URL of the video API")
	flag.StringVar(&token, "token", "", "Bearer token for the video API")
	flag.StringVar(&videoID, "video", "", "ID of the video to control")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Timeout for the whole command")
	flag.StringVar(&redisAddr, "redis-addr", "", "Redis address for the shared video cache (optional)")
	flag.StringVar(&redisUsername, "redis-username", "", "Redis username")
	flag.StringVar(&redisPassword, "redis-password", "", "Redis password")
	flag.IntVar(&redisDB, "redis-db", 0, "Redis database index")
	flag.StringVar(&redisPrefix, "redis-key-prefix", "", "Redis key prefix for cached videos")
	flag.DurationVar(&redisTTL, "redis-ttl", 0, "TTL for cached videos")
	flag.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flag.Parse()

	command := strings.ToLower(strings.TrimSpace(flag.Arg(0)))
	if command != "start" && command != "stop" {
		fatalf("usage: livectl [flags] start|stop")
	}
	if strings.TrimSpace(videoID) == "" {
		fatalf("--video is required")
	}

	cfg, _, err := config.Load(configPath)
	if err != nil {
		fatalf("load configuration: %v", err)
	}

	logger := logging.New(logging.Config{Level: logLevel, Format: "text", Writer: os.Stderr})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	video, err := fetchVideo(ctx, serverURL, token, videoID)
	if err != nil {
		fatalf("fetch video: %v", err)
	}

	cacheCfg, cacheEnabled := resolveCacheConfig(cfg.Cache, control.RedisCacheConfig{
		Addr:      redisAddr,
		Username:  redisUsername,
		Password:  redisPassword,
		DB:        redisDB,
		KeyPrefix: redisPrefix,
		TTL:       redisTTL,
	})

	commander, err := control.NewClient(control.ClientConfig{
		BaseURL: serverURL,
		Token:   token,
	})
	if err != nil {
		fatalf("configure commander: %v", err)
	}

	cache, closeCache, err := buildCache(cacheCfg, cacheEnabled)
	if err != nil {
		fatalf("configure cache: %v", err)
	}
	defer closeCache()

	controller, err := control.NewController(control.ControllerConfig{
		Video:     video,
		Commander: commander,
		Cache:     cache,
		Navigate: func(route string) {
			fmt.Fprintf(os.Stderr, "redirecting to %s\n", route)
		},
		Logger: logger,
	})
	if err != nil {
		fatalf("configure controller: %v", err)
	}

	switch command {
	case "start":
		err = controller.StartLive(ctx)
	case "stop":
		err = controller.StopLive(ctx)
	}
	if err != nil {
		if errors.Is(err, control.ErrCommandFailed) {
			fatalf("%s command failed for video %s", command, videoID)
		}
		fatalf("%s command: %v", command, err)
	}

	updated := controller.Video()
	fmt.Printf("Video %s is now %s.\n", updated.ID, updated.LiveState)
}

func fetchVideo(ctx context.Context, serverURL, token, videoID string) (models.Video, error) {
	url := fmt.Sprintf("%s/api/videos/%s", strings.TrimRight(serverURL, "/"), videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.Video{}, err
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return models.Video{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.Video{}, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var video models.Video
	if err := json.NewDecoder(resp.Body).Decode(&video); err != nil {
		return models.Video{}, err
	}
	return video, nil
}

// resolveCacheConfig layers the [cache] section of the configuration file
// under the command-line flags. Flags win field by field; the file's TLS
// settings always apply because there are no TLS flags. The cache is off when
// no flag names an address and the file does not enable it.
func resolveCacheConfig(fileCfg config.Cache, flags control.RedisCacheConfig) (control.RedisCacheConfig, bool) {
	resolved := flags
	if strings.TrimSpace(resolved.Addr) == "" {
		if !fileCfg.Enabled {
			return control.RedisCacheConfig{}, false
		}
		resolved.Addr = fileCfg.Addr
	}
	if resolved.Username == "" {
		resolved.Username = fileCfg.Username
	}
	if resolved.Password == "" {
		resolved.Password = fileCfg.Password
	}
	if resolved.DB == 0 {
		resolved.DB = fileCfg.DB
	}
	if resolved.KeyPrefix == "" {
		resolved.KeyPrefix = fileCfg.KeyPrefix
	}
	if resolved.TTL == 0 {
		resolved.TTL = time.Duration(fileCfg.TTLSecs) * time.Second
	}
	resolved.DialTimeout = time.Duration(fileCfg.DialTimeoutSecs) * time.Second
	resolved.ReadTimeout = time.Duration(fileCfg.ReadTimeoutSecs) * time.Second
	resolved.WriteTimeout = time.Duration(fileCfg.WriteTimeoutSecs) * time.Second
	resolved.PoolSize = fileCfg.PoolSize
	resolved.TLS = control.RedisTLSConfig{
		CAFile:             fileCfg.TLSCAFile,
		CertFile:           fileCfg.TLSCertFile,
		KeyFile:            fileCfg.TLSKeyFile,
		ServerName:         fileCfg.TLSServerName,
		InsecureSkipVerify: fileCfg.TLSInsecureSkipTLS,
	}
	return resolved, true
}

func buildCache(cfg control.RedisCacheConfig, enabled bool) (control.VideoCache, func(), error) {
	if !enabled {
		return control.NewMemoryCache(), func() {}, nil
	}
	cache, err := control.NewRedisCache(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cache, func() { _ = cache.Close() }, nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
