package main

// @title Mi Caja API
// @version 1.0
// @description Caja diaria del operador: cobros, ventas, resumen y cierre.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"micaja/internal/config"
	"micaja/internal/infra"
	"micaja/internal/repository"
	"micaja/internal/router"
	"micaja/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev: pretty, prod: JSON
	if cfg.Env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	// Redis backs the closing lock and the alert queue; the register keeps
	// working without it.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = infra.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable: closing locks and alert emails disabled")
			rdb = nil
		}
	}

	metrics := infra.NewMetrics("micaja")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if rdb != nil {
		mailer := infra.NewMailer(cfg)
		if !mailer.Enabled() {
			log.Warn().Msg("SMTP_HOST not set: cierre_alerta jobs will fail and land in the DLQ")
		}
		pool := worker.NewPool(rdb, metrics)
		pool.Register(worker.JobCierreAlerta,
			worker.NewCierreAlertaWorker(repository.NewCierreRepository(db), mailer, cfg.CierreAlertaEmail).
				WithArchivo(cfg.PDFStoragePath))
		pool.Start(ctx, cfg.WorkerPoolSize)
	}

	r := router.New(cfg, db, rdb, metrics)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("Mi Caja backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Info().Msg("server exited")
}
