package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

type Config struct {
	HTTPHost        string
	HTTPPort        int
	GinMode         string
	LogLevel        string
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration

	CacheBackend   string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
	RedisTTL       time.Duration
}

func (c Config) HTTPAddr() string {
	return net.JoinHostPort(c.HTTPHost, strconv.Itoa(c.HTTPPort))
}

func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BOOKING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.request_timeout", "10s")
	v.SetDefault("gin.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("shutdown.timeout", "10s")
	v.SetDefault("cache.backend", CacheBackendMemory)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "slots")
	v.SetDefault("redis.ttl", "0s")

	_ = v.BindEnv("http.host", "BOOKING_HTTP_HOST", "HTTP_HOST")
	_ = v.BindEnv("http.port", "BOOKING_HTTP_PORT", "PORT")
	_ = v.BindEnv("http.request_timeout", "BOOKING_HTTP_REQUEST_TIMEOUT")
	_ = v.BindEnv("gin.mode", "BOOKING_GIN_MODE", "GIN_MODE")
	_ = v.BindEnv("log.level", "BOOKING_LOG_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("shutdown.timeout", "BOOKING_SHUTDOWN_TIMEOUT", "SHUTDOWN_TIMEOUT")
	_ = v.BindEnv("cache.backend", "BOOKING_CACHE_BACKEND")
	_ = v.BindEnv("redis.addr", "BOOKING_REDIS_ADDR", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "BOOKING_REDIS_PASSWORD", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "BOOKING_REDIS_DB")
	_ = v.BindEnv("redis.key_prefix", "BOOKING_REDIS_KEY_PREFIX")
	_ = v.BindEnv("redis.ttl", "BOOKING_REDIS_TTL")

	shutdownTimeout, err := time.ParseDuration(v.GetString("shutdown.timeout"))
	if err != nil {
		return Config{}, err
	}
	requestTimeout, err := time.ParseDuration(v.GetString("http.request_timeout"))
	if err != nil {
		return Config{}, err
	}
	redisTTL, err := time.ParseDuration(v.GetString("redis.ttl"))
	if err != nil {
		return Config{}, err
	}

	port := v.GetInt("http.port")
	if port < 1 || port > 65535 {
		return Config{}, fmt.Errorf("http.port must be a valid TCP port (got %q)", v.GetString("http.port"))
	}

	backend := strings.ToLower(strings.TrimSpace(v.GetString("cache.backend")))
	switch backend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return Config{}, fmt.Errorf("unsupported cache.backend %q", backend)
	}

	return Config{
		HTTPHost:        strings.TrimSpace(v.GetString("http.host")),
		HTTPPort:        port,
		GinMode:         v.GetString("gin.mode"),
		LogLevel:        v.GetString("log.level"),
		ShutdownTimeout: shutdownTimeout,
		RequestTimeout:  requestTimeout,
		CacheBackend:    backend,
		RedisAddr:       v.GetString("redis.addr"),
		RedisPassword:   v.GetString("redis.password"),
		RedisDB:         v.GetInt("redis.db"),
		RedisKeyPrefix:  v.GetString("redis.key_prefix"),
		RedisTTL:        redisTTL,
	}, nil
}
