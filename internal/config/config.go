package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// API holds the backing service configuration. Values are read once at
// startup and the struct is never mutated afterwards.
type API struct {
	Addr            string
	DSN             string
	TokenSecret     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
}

// Gateway holds the edge gateway configuration. The gateway may run with a
// secret independent from the API's; they only need to match when the two
// tiers are meant to accept each other's tokens.
type Gateway struct {
	Addr            string
	Upstream        *url.URL
	TokenSecret     string
	RateBurst       int
	RatePerSecond   int
	ShutdownTimeout time.Duration
}

// LoadAPI builds the backing service configuration from the environment.
func LoadAPI() (API, error) {
	secret := strings.TrimSpace(os.Getenv("CAREBASE_AUTH_SECRET"))
	if secret == "" {
		return API{}, errors.New("config: CAREBASE_AUTH_SECRET is required")
	}
	cfg := API{
		Addr:            getEnv("CAREBASE_API_ADDR", ":8081"),
		DSN:             strings.TrimSpace(os.Getenv("CAREBASE_PG_DSN")),
		TokenSecret:     secret,
		AccessTokenTTL:  getDuration("CAREBASE_ACCESS_TOKEN_TTL", defaultAccessTTL),
		RefreshTokenTTL: getDuration("CAREBASE_REFRESH_TOKEN_TTL", defaultRefreshTTL),
		MaxBodyBytes:    1 << 20,
		ShutdownTimeout: getDuration("CAREBASE_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return API{}, errors.New("config: token TTLs must be positive")
	}
	return cfg, nil
}

// LoadGateway builds the edge gateway configuration from the environment.
func LoadGateway() (Gateway, error) {
	secret := strings.TrimSpace(os.Getenv("CAREBASE_GATEWAY_SECRET"))
	if secret == "" {
		secret = strings.TrimSpace(os.Getenv("CAREBASE_AUTH_SECRET"))
	}
	if secret == "" {
		return Gateway{}, errors.New("config: CAREBASE_GATEWAY_SECRET or CAREBASE_AUTH_SECRET is required")
	}
	rawUpstream := getEnv("CAREBASE_UPSTREAM_URL", "http://localhost:8081")
	upstream, err := url.Parse(rawUpstream)
	if err != nil || upstream.Scheme == "" || upstream.Host == "" {
		return Gateway{}, fmt.Errorf("config: invalid upstream url %q", rawUpstream)
	}
	return Gateway{
		Addr:            getEnv("CAREBASE_GATEWAY_ADDR", ":8080"),
		Upstream:        upstream,
		TokenSecret:     secret,
		RateBurst:       getInt("CAREBASE_RATE_BURST", 20),
		RatePerSecond:   getInt("CAREBASE_RATE_PER_SEC", 10),
		ShutdownTimeout: getDuration("CAREBASE_SHUTDOWN_TIMEOUT", 10*time.Second),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
