package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"geoplot/internal/logging"
	"geoplot/internal/metrics"
	"geoplot/internal/painter"
)

func main() {
	_ = godotenv.Load(".env")

	addr := envOr("PAINTER_ADDR", ":8082")
	logLevel := envOr("LOG_LEVEL", "info")
	cacheSize := envInt("PAINTER_CACHE_SIZE", 4096)
	redisAddr := envOr("REDIS_ADDR", "")
	redisPass := envOr("REDIS_PASS", "")
	redisDB := envInt("REDIS_DB", 0)
	redisTTL := envDuration("PAINTER_REDIS_TTL", 24*time.Hour)
	iconTimeout := envDuration("PAINTER_ICON_TIMEOUT", 5*time.Second)

	logger := logging.New(os.Stdout, logLevel, "painter")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mem, err := painter.NewMemoryStore(cacheSize)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create memory store")
	}
	var store painter.Store = mem
	if rc := painter.OpenRedis(redisAddr, redisPass, redisDB); rc != nil {
		defer rc.Close()
		store = painter.Tiered{Front: mem, Back: painter.NewRedisStore(rc, redisTTL)}
		logger.Info().Str("redis", redisAddr).Msg("redis store enabled")
	}

	s := painter.New(logger, painter.Options{
		Store:       store,
		Metrics:     metrics.New(),
		IconTimeout: iconTimeout,
	})
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("painter listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info().Msg("shutdown complete")
}

func envOr(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return d
}
