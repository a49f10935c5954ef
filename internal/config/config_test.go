package config

import (
	"testing"
	"time"
)

func TestLoadAPIRequiresSecret(t *testing.T) {
	t.Setenv("CAREBASE_AUTH_SECRET", "")
	if _, err := LoadAPI(); err == nil {
		t.Fatal("expected error when secret is missing")
	}
}

func TestLoadAPIDefaults(t *testing.T) {
	t.Setenv("CAREBASE_AUTH_SECRET", "test-secret")
	t.Setenv("CAREBASE_ACCESS_TOKEN_TTL", "")
	t.Setenv("CAREBASE_REFRESH_TOKEN_TTL", "")

	cfg, err := LoadAPI()
	if err != nil {
		t.Fatalf("LoadAPI: %v", err)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("unexpected access TTL: %v", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 7*24*time.Hour {
		t.Fatalf("unexpected refresh TTL: %v", cfg.RefreshTokenTTL)
	}
	if cfg.Addr != ":8081" {
		t.Fatalf("unexpected addr: %s", cfg.Addr)
	}
}

func TestLoadGatewayFallsBackToAuthSecret(t *testing.T) {
	t.Setenv("CAREBASE_GATEWAY_SECRET", "")
	t.Setenv("CAREBASE_AUTH_SECRET", "shared-secret")
	t.Setenv("CAREBASE_UPSTREAM_URL", "http://api.internal:8081")

	cfg, err := LoadGateway()
	if err != nil {
		t.Fatalf("LoadGateway: %v", err)
	}
	if cfg.TokenSecret != "shared-secret" {
		t.Fatalf("unexpected secret: %s", cfg.TokenSecret)
	}
	if cfg.Upstream.Host != "api.internal:8081" {
		t.Fatalf("unexpected upstream: %s", cfg.Upstream)
	}
}

func TestLoadGatewayRejectsBadUpstream(t *testing.T) {
	t.Setenv("CAREBASE_AUTH_SECRET", "secret")
	t.Setenv("CAREBASE_UPSTREAM_URL", "not a url")
	if _, err := LoadGateway(); err == nil {
		t.Fatal("expected error for malformed upstream url")
	}
}
