package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gocnwi/adapters/api"
	"gocnwi/internal"
	"gocnwi/internal/config"
	"gocnwi/internal/container"
	apperrors "gocnwi/internal/errors"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase connects to the report store
func initDatabase(ctx context.Context, appConfig *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", appConfig.Database.URL)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to connect to database", err)
	}
	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	internal.DefaultLogger = internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	if appConfig.Database.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := initDatabase(ctx, appConfig)
		if err == nil {
			err = appContainer.InitWithDatabase(ctx, db)
		}
		cancel()
		if err != nil {
			log.Fatalf("Failed to initialize report store: %v", err)
		}
	} else {
		log.Println("DATABASE_URL not set, reports will not be stored")
	}

	server := api.NewServer(appContainer.Separability, appContainer.Accuracy, appContainer.Reports, api.Options{
		Samples:        appConfig.SampleOptions(),
		RequestTimeout: appConfig.Server.RequestTimeout,
	})

	httpServer := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
