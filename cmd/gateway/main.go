package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carebase.org/internal/config"
	"carebase.org/internal/gateway"
	"carebase.org/internal/httpapi"
	"carebase.org/internal/obs"
	"carebase.org/internal/token"
)

var version = "0.3.0"

func main() {
	obs.Init()
	obs.InitBuildInfo("carebase-gateway", version)
	logger := obs.Logger()

	cfg, err := config.LoadGateway()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	// TTLs do not matter at the edge: the gateway only validates, never
	// issues. The codec still requires them.
	codec, err := token.NewCodec(cfg.TokenSecret, 15*time.Minute, 7*24*time.Hour)
	if err != nil {
		logger.Fatal().Err(err).Msg("token codec")
	}
	gw, err := gateway.New(codec, cfg.Upstream)
	if err != nil {
		logger.Fatal().Err(err).Msg("gateway")
	}

	var handler http.Handler = gw
	handler = httpapi.RateLimit(handler, cfg.RateBurst, cfg.RatePerSecond)
	handler = httpapi.Logging(handler)
	handler = httpapi.RequestID(handler)
	handler = httpapi.SecurityHeaders(handler)
	handler = obs.Instrument(handler)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info().
		Str("addr", cfg.Addr).
		Str("upstream", cfg.Upstream.String()).
		Str("version", version).
		Msg("starting carebase-gateway")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(ctx)
	logger.Info().Msg("stopped")
}
