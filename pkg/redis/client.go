package redis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotConfigured is returned by NewClient when no URL is set.
var ErrNotConfigured = errors.New("redis: REDIS_URL not configured")

// Config holds Redis connection configuration
type Config struct {
	URL      string // redis://host:port/db or rediss://... for TLS
	Password string // overrides the password embedded in URL
}

// NewClient parses cfg, connects and pings. Callers own the returned client
// and must Close it.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: connection failed: %w", err)
	}
	return client, nil
}

func optionsFromConfig(cfg Config) (*redis.Options, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, ErrNotConfigured
	}

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}
	if parsedURL.Scheme != "redis" && parsedURL.Scheme != "rediss" {
		return nil, fmt.Errorf("redis: unsupported scheme %q", parsedURL.Scheme)
	}

	addr := parsedURL.Host
	if parsedURL.Port() == "" {
		addr = addr + ":6379"
	}

	password := cfg.Password
	if password == "" && parsedURL.User != nil {
		password, _ = parsedURL.User.Password()
	}

	db := 0
	if path := strings.Trim(parsedURL.Path, "/"); path != "" {
		db, err = strconv.Atoi(path)
		if err != nil {
			return nil, fmt.Errorf("redis: invalid database %q", path)
		}
	}

	opts := &redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	}
	if parsedURL.User != nil {
		opts.Username = parsedURL.User.Username()
	}

	if parsedURL.Scheme == "rediss" {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}
	return opts, nil
}
