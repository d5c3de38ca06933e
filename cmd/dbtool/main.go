package main

import (
	"context"
	"database/sql"
	"flag"
	"hos-route-service/internal/adapters/cache"
	"hos-route-service/internal/adapters/repositories"
	"hos-route-service/internal/config"
	"hos-route-service/internal/platform/db"
	"log"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	seedPath := flag.String("seed", config.Get("SEED_PATH", "data/seeds/fleet.json"), "fleet fixture to load")
	schemaOnly := flag.Bool("schema-only", false, "create tables without seeding")
	prune := flag.Bool("prune-cache", false, "drop distance cache rows older than CACHE_TTL and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	if *prune {
		n, err := cache.NewSQLDistanceCache(database, cfg.CacheTTL).Prune(ctx)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Pruned %d distance cache rows older than %s.", n, cfg.CacheTTL)
		return
	}

	if err := initAndSeed(ctx, database, *seedPath, *schemaOnly); err != nil {
		log.Fatal(err)
	}
}

func initAndSeed(ctx context.Context, database *sql.DB, seedPath string, schemaOnly bool) error {
	log.Println("Applying fleet, plan and cache tables...")
	if err := repositories.InitSchema(ctx, database); err != nil {
		return err
	}

	if schemaOnly {
		return nil
	}

	log.Printf("Loading tenants, drivers, vehicles, loads and stations from %s...", seedPath)
	if err := repositories.SeedFromJSON(ctx, database, seedPath); err != nil {
		return err
	}
	log.Println("Fleet fixture loaded.")

	return nil
}
