package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	CacheBackendPostgres = "postgres"
	CacheBackendRedis    = "redis"
	CacheBackendNone     = "none"
)

// Config is the server's runtime configuration.
type Config struct {
	Port           string
	DatabaseURL    string
	RedisURL       string
	ORSAPIKey      string
	ORSBaseURL     string
	WeatherURL     string
	OracleTimeout  time.Duration
	WeatherTimeout time.Duration
	CacheBackend   string
	CacheTTL       time.Duration
	EventsChannel  string
}

func Load() (*Config, error) {
	oracleTimeout, err := GetDuration("ORACLE_TIMEOUT", 8*time.Second)
	if err != nil {
		return nil, err
	}
	weatherTimeout, err := GetDuration("WEATHER_TIMEOUT", 3*time.Second)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := GetDuration("CACHE_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:           Get("PORT", "8080"),
		DatabaseURL:    Get("DATABASE_URL", ""),
		RedisURL:       Get("REDIS_URL", ""),
		ORSAPIKey:      Get("ORS_API_KEY", ""),
		ORSBaseURL:     Get("ORS_BASE_URL", "https://api.openrouteservice.org"),
		WeatherURL:     Get("WEATHER_URL", ""),
		OracleTimeout:  oracleTimeout,
		WeatherTimeout: weatherTimeout,
		CacheBackend:   Get("CACHE_BACKEND", CacheBackendPostgres),
		CacheTTL:       cacheTTL,
		EventsChannel:  Get("PLAN_EVENTS_CHANNEL", "hosroute:plans"),
	}

	switch cfg.CacheBackend {
	case CacheBackendPostgres, CacheBackendRedis, CacheBackendNone:
	default:
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q", cfg.CacheBackend)
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.CacheBackend == CacheBackendRedis && cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required when CACHE_BACKEND=redis")
	}

	return cfg, nil
}
