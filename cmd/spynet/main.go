package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spynet-dev/spynet/db"
	"github.com/spynet-dev/spynet/internal/auth"
	"github.com/spynet-dev/spynet/internal/config"
	"github.com/spynet-dev/spynet/internal/router"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err = db.ConnectDatabase(cfg.DatabaseDSN); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err = db.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	auth.Init(cfg.JWTSecret)

	r := router.NewRouter(cfg.AllowedOrigins)

	if err = r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
