package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"carebase.org/internal/auth"
	"carebase.org/internal/config"
	"carebase.org/internal/httpapi"
	"carebase.org/internal/obs"
	"carebase.org/internal/patient"
	"carebase.org/internal/token"
)

var version = "0.3.0"

func main() {
	obs.Init()
	obs.InitBuildInfo("carebase-api", version)
	logger := obs.Logger()

	cfg, err := config.LoadAPI()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if cfg.DSN == "" {
		logger.Fatal().Msg("CAREBASE_PG_DSN is required")
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db")
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	codec, err := token.NewCodec(cfg.TokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("token codec")
	}
	authSvc, err := auth.NewService(auth.NewPGUserStore(db), auth.NewPGPermissionStore(db), codec)
	if err != nil {
		logger.Fatal().Err(err).Msg("auth service")
	}
	patientSvc, err := patient.NewService(patient.NewPGStore(db))
	if err != nil {
		logger.Fatal().Err(err).Msg("patient service")
	}

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authSvc.EnsureBuiltins(seedCtx); err != nil {
		logger.Fatal().Err(err).Msg("seed permissions")
	}
	cancelSeed()

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, authSvc, patientSvc)
	handler := httpapi.CORS(httpapi.MaxBodyBytes(api.Handler(), cfg.MaxBodyBytes))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info().Str("addr", cfg.Addr).Str("version", version).Msg("starting carebase-api")

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
	_ = db.Close()
	logger.Info().Msg("stopped")
}
