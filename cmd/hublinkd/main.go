package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/hublink/internal/config"
	"github.com/danmuck/hublink/internal/observability"
	"github.com/danmuck/hublink/internal/services"
	"github.com/danmuck/hublink/internal/status"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "cmd/hublinkd/config.toml", "path to hublinkd config")
	flag.Parse()

	logger := observability.InitLogger("hublinkd")
	observability.RegisterMetrics()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	log.Info().Str("path", *configPath).Int("services", len(cfg.Services)).Msg("loaded config")

	svcs, err := services.BuildAll(cfg.Services)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build services")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := newDaemon(cfg, svcs, logger)

	var httpSrv *http.Server
	if cfg.StatusAddr != "" {
		gin.SetMode(gin.ReleaseMode)
		httpSrv = &http.Server{
			Addr:              cfg.StatusAddr,
			Handler:           status.NewRouter(cfg.Name, d, cfg.CorsOrigins, logger),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.StatusAddr).Msg("status server started")
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("status server stopped")
				stop()
			}
		}()
	}

	if err := d.Run(ctx); err != nil {
		log.Error().Err(err).Msg("link listener stopped")
	}

	if httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("status server shutdown")
		}
	}
	log.Info().Msg("hublinkd stopped")
}
