package main

import (
	"context"
	"log"
	"os"
	"time"

	"gocnwi/internal/migration"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if len(os.Args) > 1 {
		databaseURL = os.Args[1]
	}
	if databaseURL == "" {
		log.Fatal("Usage: migrate <database_url> (or set DATABASE_URL)")
	}

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	runner := migration.NewRunner()
	log.Printf("Running migrations (version %s)", runner.Version())
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Migrations complete")
}
