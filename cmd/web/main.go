package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/justsurfingit/job-tracker-web/internal/auth"
	"github.com/justsurfingit/job-tracker-web/internal/config"
	"github.com/justsurfingit/job-tracker-web/internal/database"
	"github.com/justsurfingit/job-tracker-web/internal/handlers"
	"github.com/justsurfingit/job-tracker-web/internal/services"
	"github.com/justsurfingit/job-tracker-web/internal/session"
)

func main() {
	ctx := context.Background()

	// 1. Load Configuration (.env, optional YAML file, environment)
	cfg, err := config.Load("")
	if err != nil {
		log.Fatal("Configuration error: ", err)
	}

	// 2. Session Store: Postgres when configured, files otherwise
	var store session.Store
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Database error: ", err)
		}
		store = session.NewDBStore(db)
		log.Println("✅ Sessions stored in Postgres.")
	} else {
		fs, err := session.NewFileStore(cfg.SessionDir)
		if err != nil {
			log.Fatal("Session store error: ", err)
		}
		store = fs
		log.Printf("✅ Sessions stored in %s", cfg.SessionDir)
	}
	if p, ok := store.(session.Pruner); ok {
		session.StartPruning(ctx, p, cfg.SessionTTL, max(cfg.SessionTTL/2, time.Minute))
	}

	// 3. Identity Provider
	identity, err := auth.NewCognitoClient(ctx, cfg.Region(), cfg.CognitoClientID)
	if err != nil {
		log.Fatal("Failed to create identity client: ", err)
	}

	// 4. Tracker API
	tracker := services.NewTrackerClient(cfg.APIBaseURL, http.DefaultClient)
	landing := services.NewLandingService(tracker)

	// 5. Optional AI posting extraction
	var extractor handlers.Extractor
	if cfg.LLMEnabled() {
		llm, err := services.NewLLMService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Printf("⚠️  Posting extraction disabled: %v", err)
		} else {
			extractor = llm
			log.Println("✅ Posting extraction enabled.")
		}
	}

	// 6. Handlers & Router
	authHandler := handlers.NewAuthHandler(identity, store, cfg.SecureCookies)
	appHandler := handlers.NewApplicationHandler(landing, extractor)
	r := handlers.NewRouter(authHandler, appHandler, store, cfg.AllowedOrigins)

	log.Printf("🚀 Server starting on port %s...", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Server failed to start: ", err)
	}
}
