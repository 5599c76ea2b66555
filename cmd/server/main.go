package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"calendar-booking/internal/app"
	"calendar-booking/internal/booking"
	"calendar-booking/internal/config"
	"calendar-booking/internal/server"
	"calendar-booking/internal/slotcache"
	"calendar-booking/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "calendar-booking"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "calendar-booking"),
	)
	slog.SetDefault(log)
	gin.SetMode(cfg.GinMode)

	log.Info("starting",
		slog.String("http_addr", cfg.HTTPAddr()),
		slog.String("log_level", cfg.LogLevel),
		slog.String("cache_backend", cfg.CacheBackend))

	var (
		cache slotcache.Cache
		ready []app.ReadyCheck
	)
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Warn("redis close failed", slog.Any("err", err))
			}
		}()
		rc := slotcache.NewRedis(rdb, cfg.RedisKeyPrefix, cfg.RedisTTL)
		cache = rc
		ready = append(ready, app.ReadyCheck{Name: "redis", Check: rc.Ping})
		log.Info("using redis slot cache", slog.String("redis_addr", cfg.RedisAddr))
	default:
		cache = slotcache.NewMemory()
	}

	cals := store.NewMemory(log)
	engine := booking.NewEngine(cals, cache, log)
	router := app.New(cals, engine, log, ready...).Router(cfg.RequestTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, log, cfg.HTTPAddr(), router, cfg.ShutdownTimeout); err != nil {
		log.Error("http server stopped with error", slog.Any("err", err))
		os.Exit(1)
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
