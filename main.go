package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hg9336099029/survey-be/internal/api"
	"github.com/hg9336099029/survey-be/internal/auth"
	"github.com/hg9336099029/survey-be/internal/config"
	"github.com/hg9336099029/survey-be/internal/database"
	"github.com/hg9336099029/survey-be/internal/logger"
	"github.com/hg9336099029/survey-be/internal/monitoring"
	"github.com/hg9336099029/survey-be/internal/services"
	"github.com/hg9336099029/survey-be/internal/upload"
	"github.com/hg9336099029/survey-be/internal/websocket"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	auth.Init(cfg.JWTSecret)

	// Ensure the uploads directory exists
	uploads, err := upload.NewStore(cfg.UploadsDir)
	if err != nil {
		log.Fatalf("Failed to initialize uploads directory: %v", err)
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to apply database migrations: %v", err)
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	eventService := services.NewEventService(db)
	userService := services.NewUserService(db, eventService)
	pollService := services.NewPollService(db, eventService, hub)

	// Set up and run the background vote counter auditor
	auditor, err := monitoring.NewCounterAuditor(db, eventService, cfg.AuditSchedule)
	if err != nil {
		log.Fatalf("Failed to initialize counter auditor: %v", err)
	}
	go auditor.Run()

	// Set up router
	router := api.NewRouter(hub, userService, pollService, eventService, uploads, cfg.AllowedOrigins)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on port %d\n", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	auditor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
