package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hos-route-service/internal/adapters/cache"
	"hos-route-service/internal/adapters/distance"
	"hos-route-service/internal/adapters/events"
	"hos-route-service/internal/adapters/repositories"
	"hos-route-service/internal/adapters/stations"
	"hos-route-service/internal/adapters/weather"
	"hos-route-service/internal/api"
	"hos-route-service/internal/api/handlers"
	"hos-route-service/internal/config"
	"hos-route-service/internal/hos"
	"hos-route-service/internal/platform/db"
	"hos-route-service/internal/ports"
	"hos-route-service/internal/services"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis, ORS, weather) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	limits, err := config.HOSLimitsFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	plannerCfg, err := config.PlannerFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis ping failed: %v", err)
		}
		log.Printf("redis connected")
	}

	engine, err := hos.NewEngine(limits)
	if err != nil {
		log.Fatal(err)
	}

	oracle, geocoder, err := buildOracle(cfg, plannerCfg, database, redisClient)
	if err != nil {
		log.Fatal(err)
	}

	var weatherProvider ports.WeatherProvider = weather.None{}
	if cfg.WeatherURL != "" {
		weatherProvider, err = weather.NewHTTPProvider(cfg.WeatherURL, cfg.WeatherTimeout)
		if err != nil {
			log.Fatal(err)
		}
	}

	directory := stations.NewSQLDirectory(database)
	planner, err := services.NewRoutePlanner(services.PlannerDeps{
		HOS:     engine,
		Oracle:  oracle,
		Weather: weatherProvider,
		Fuel:    directory,
		Rest:    directory,
	}, plannerCfg)
	if err != nil {
		log.Fatal(err)
	}

	store := repositories.NewPostgresPlanStore(database)
	deps := services.TripPlannerDeps{
		Fleet:   repositories.NewPostgresFleetRepository(database),
		Planner: planner,
		Store:   store,
	}
	if geocoder != nil {
		deps.Geocoder = geocoder
	}
	if redisClient != nil {
		deps.Publisher = events.NewRedisPublisher(redisClient, cfg.EventsChannel)
	}
	trips, err := services.NewTripPlanner(deps)
	if err != nil {
		log.Fatal(err)
	}

	checks := map[string]handlers.Pinger{"postgres": handlers.PingFunc(database.PingContext)}
	if redisClient != nil {
		checks["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	router := api.NewRouter(api.RouterDeps{Planner: trips, Store: store, HOS: engine, Checks: checks})

	// Timeouts are tuned for cold-cache route planning (external API latency).
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown failed: %v", err)
		}
	}()

	log.Printf("Server listening addr=:%s cache=%s ors=%t weather=%t", cfg.Port, cfg.CacheBackend, cfg.ORSAPIKey != "", cfg.WeatherURL != "")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// buildOracle returns the distance oracle and, when ORS is configured, a
// geocoder. Without an ORS key the service plans on estimates only.
func buildOracle(
	cfg *config.Config,
	plannerCfg services.PlannerConfig,
	database *sql.DB,
	redisClient *redis.Client,
) (ports.DistanceOracle, ports.Geocoder, error) {
	estimator := distance.NewEstimateOracle(plannerCfg.RoadFactor, plannerCfg.AvgSpeedMph)
	if cfg.ORSAPIKey == "" {
		log.Println("ORS_API_KEY not set: distances are great-circle estimates")
		return estimator, nil, nil
	}

	var distanceCache ports.DistanceCache
	switch cfg.CacheBackend {
	case config.CacheBackendPostgres:
		distanceCache = cache.NewSQLDistanceCache(database, cfg.CacheTTL)
	case config.CacheBackendRedis:
		if redisClient == nil {
			return nil, nil, fmt.Errorf("redis cache selected without a redis client")
		}
		distanceCache = cache.NewRedisDistanceCache(redisClient, cfg.CacheTTL)
	}

	ors, err := distance.NewORSOracle(cfg.ORSAPIKey, cfg.ORSBaseURL, distanceCache)
	if err != nil {
		return nil, nil, err
	}
	geocoder, err := distance.NewORSGeocoder(cfg.ORSAPIKey, cfg.ORSBaseURL, cache.NewSQLGeocodeCache(database))
	if err != nil {
		return nil, nil, err
	}

	return distance.NewFallbackOracle(ors, estimator, cfg.OracleTimeout), geocoder, nil
}
