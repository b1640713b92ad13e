package control

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"lumen-live/internal/models"
)

const defaultRedisKeyPrefix = "lumen:video:"

// RedisTLSConfig controls TLS behaviour for Redis connections.
type RedisTLSConfig struct {
	CAFile             string
	CertFile           string
	KeyFile            string
	ServerName         string
	InsecureSkipVerify bool
}

// RedisCacheConfig configures the Redis-backed video cache.
type RedisCacheConfig struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	KeyPrefix    string
	TTL          time.Duration
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	TLS          RedisTLSConfig
}

// RedisCache stores videos as JSON values in Redis so multiple control
// clients observe command results immediately.
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisCache initialises a cache backed by a single Redis instance. The
// caller is responsible for ensuring the instance is reachable.
func NewRedisCache(cfg RedisCacheConfig) (*RedisCache, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("control: redis address is required")
	}

	options := &redis.Options{
		Addr:         addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	}

	tlsConfig, err := buildRedisTLSConfig(cfg.TLS)
	if err != nil {
		return nil, err
	}
	options.TLSConfig = tlsConfig

	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = defaultRedisKeyPrefix
	}

	return &RedisCache{
		client:    redis.NewClient(options),
		keyPrefix: keyPrefix,
		ttl:       cfg.TTL,
	}, nil
}

func buildRedisTLSConfig(cfg RedisTLSConfig) (*tls.Config, error) {
	if cfg.CAFile == "" && cfg.CertFile == "" && cfg.KeyFile == "" && cfg.ServerName == "" && !cfg.InsecureSkipVerify {
		return nil, nil
	}
	tlsConfig := &tls.Config{
		ServerName:         cfg.ServerName,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		MinVersion:         tls.VersionTLS12,
	}
	if cfg.CAFile != "" {
		pem, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read redis CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("parse redis CA file %s", cfg.CAFile)
		}
		tlsConfig.RootCAs = pool
	}
	if (cfg.CertFile == "") != (cfg.KeyFile == "") {
		return nil, fmt.Errorf("redis TLS requires both cert and key files")
	}
	if cfg.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load redis client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	return tlsConfig, nil
}

func (c *RedisCache) key(id string) string {
	return c.keyPrefix + id
}

// Get fetches the cached video by id; a missing key is not an error.
func (c *RedisCache) Get(ctx context.Context, id string) (models.Video, bool, error) {
	payload, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err == redis.Nil {
		return models.Video{}, false, nil
	}
	if err != nil {
		return models.Video{}, false, fmt.Errorf("cache get %s: %w", id, err)
	}
	var video models.Video
	if err := json.Unmarshal(payload, &video); err != nil {
		return models.Video{}, false, fmt.Errorf("decode cached video %s: %w", id, err)
	}
	return video, true, nil
}

// Put stores the video keyed by its id, bounded by the configured TTL.
func (c *RedisCache) Put(ctx context.Context, video models.Video) error {
	payload, err := json.Marshal(video)
	if err != nil {
		return fmt.Errorf("encode video %s: %w", video.ID, err)
	}
	if err := c.client.Set(ctx, c.key(video.ID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache put %s: %w", video.ID, err)
	}
	return nil
}

// Ping verifies the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache ping: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
