package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"
	"github.com/prperemyshlev/pagoseguro-auth/internal/config"
	"github.com/prperemyshlev/pagoseguro-auth/pkg/database"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(context.Background())
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := database.Migrate(cfg.Postgres.URL(), *direction); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Printf("Migrations applied (%s)", *direction)
}
