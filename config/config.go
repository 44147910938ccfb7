package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every external input the service needs. It is built once in
// main and threaded into constructors; nothing else reads the environment.
type Config struct {
	Port                string
	UpstreamBaseURL     string
	MapsAPIKey          string
	FrontendURL         string
	UpstreamTimeout     time.Duration
	SnapshotRefresh     time.Duration
	PrefetchConcurrency int
}

const (
	defaultPort            = "8080"
	defaultUpstreamBaseURL = "http://localhost:8000"
	defaultFrontendURL     = "http://localhost:3000"
	defaultUpstreamTimeout = 15 * time.Second
	defaultSnapshotRefresh = 30 * time.Minute
	defaultPrefetchWorkers = 8
)

// Load derives configuration from environment variables, falling back to
// defaults suitable for local development.
func Load() (Config, error) {
	cfg := Config{
		Port:                defaultPort,
		UpstreamBaseURL:     defaultUpstreamBaseURL,
		FrontendURL:         defaultFrontendURL,
		UpstreamTimeout:     defaultUpstreamTimeout,
		SnapshotRefresh:     defaultSnapshotRefresh,
		PrefetchConcurrency: defaultPrefetchWorkers,
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}

	if v := os.Getenv("OUTLET_API_URL"); v != "" {
		cfg.UpstreamBaseURL = v
	}

	cfg.MapsAPIKey = os.Getenv("MAPS_API_KEY")

	if v := os.Getenv("FRONTEND_URL"); v != "" {
		cfg.FrontendURL = v
	}

	if v := os.Getenv("UPSTREAM_TIMEOUT_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return Config{}, fmt.Errorf("invalid UPSTREAM_TIMEOUT_SECONDS: %q", v)
		}
		cfg.UpstreamTimeout = time.Duration(secs) * time.Second
	}

	if v := os.Getenv("SNAPSHOT_REFRESH_MINUTES"); v != "" {
		mins, err := strconv.Atoi(v)
		if err != nil || mins <= 0 {
			return Config{}, fmt.Errorf("invalid SNAPSHOT_REFRESH_MINUTES: %q", v)
		}
		cfg.SnapshotRefresh = time.Duration(mins) * time.Minute
	}

	if v := os.Getenv("HOURS_PREFETCH_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid HOURS_PREFETCH_CONCURRENCY: %q", v)
		}
		cfg.PrefetchConcurrency = n
	}

	return cfg, nil
}
