package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/justsurfingit/job-tracker-web/internal/auth"
	"github.com/justsurfingit/job-tracker-web/internal/config"
	"github.com/justsurfingit/job-tracker-web/internal/database"
	"github.com/justsurfingit/job-tracker-web/internal/services"
	"github.com/justsurfingit/job-tracker-web/internal/session"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg, err := config.Load("")
	if err != nil {
		log.Fatal("Configuration error: ", err)
	}
	if err := cfg.ValidateMailSync(); err != nil {
		log.Fatal("Configuration error: ", err)
	}

	// 2. Database Connection (sync cursor + processed emails)
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Database error: ", err)
	}

	// 3. Initialize Core Services
	llmService, err := services.NewLLMService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatal("Failed to create Gemini client: ", err)
	}
	identity, err := auth.NewCognitoClient(ctx, cfg.Region(), cfg.CognitoClientID)
	if err != nil {
		log.Fatal("Failed to create identity client: ", err)
	}
	tracker := services.NewTrackerClient(cfg.APIBaseURL, http.DefaultClient)

	// 4. Initialize Gmail Integration
	log.Println("Initializing Gmail Client...")
	httpClient, err := auth.GetGmailClient(ctx, cfg.GmailCredentialsFile, cfg.GmailTokenFile)
	if err != nil {
		log.Fatal("Gmail authorization failed: ", err)
	}
	gmailService, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		log.Fatal("Failed to create Gmail Service: ", err)
	}
	log.Println("✅ Gmail Service connected successfully.")

	// 5. Sign in fresh on every cycle; ID tokens expire after an hour
	signIn := func(ctx context.Context) (session.Session, error) {
		res, err := identity.SignIn(ctx, cfg.SyncEmail, cfg.SyncPassword)
		if err != nil {
			return session.Session{}, err
		}
		return session.Session{IDToken: res.IDToken, Username: res.Username}, nil
	}

	// 6. Run the Email Watcher until interrupted
	emailService := services.NewEmailService(db, llmService, gmailService, services.NewMatcherService(), tracker, signIn)
	log.Printf("📧 Watching %s every %s", cfg.SyncEmail, cfg.SyncInterval)
	emailService.Watch(ctx, cfg.SyncInterval)
}
