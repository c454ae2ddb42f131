package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/YuviX-514/pawAdopt/internal/config"
	"github.com/YuviX-514/pawAdopt/internal/db"
)

var down = flag.Bool("down", false, "run migration down")

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if !cfg.UsesPostgres() {
		log.Fatal("DATABASE_URL is required")
	}

	if err := db.Migrate(cfg.DatabaseURL, *down); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if *down {
		log.Println("migrations reverted")
	} else {
		log.Println("migrations applied")
	}
}
