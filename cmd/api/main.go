package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/moodlog/server/internal/ai"
	"github.com/moodlog/server/internal/auth"
	"github.com/moodlog/server/internal/config"
	"github.com/moodlog/server/internal/db"
	httphandler "github.com/moodlog/server/internal/http"
	"github.com/moodlog/server/internal/http/handlers"
	"github.com/moodlog/server/internal/mail"
	"github.com/moodlog/server/internal/mood"
	"github.com/moodlog/server/internal/repo"
)

func main() {
	// Load .env from CWD so it works from repo root (env vars override)
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context for startup operations
	ctx := context.Background()

	// Open database connection
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := runMigrations(database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	userRepo := repo.NewUserRepo(database)
	moodRepo := repo.NewMoodRepo(database)

	// Initialize services
	tokenService := auth.NewTokenService(auth.TokenConfig{
		AccessSecret:  cfg.AccessSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshSecret: cfg.RefreshSecret,
		RefreshTTL:    cfg.RefreshTTL,
		OTPSecret:     cfg.OTPSecret,
		OTPTTL:        cfg.OTPTTL,
	})

	var mailer mail.Mailer
	if cfg.DevMode {
		mailer = mail.LogMailer{}
	} else {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	}

	var generator ai.Generator
	if cfg.OpenAIKey != "" {
		generator = ai.NewOpenAIGenerator(cfg.OpenAIKey)
	} else {
		generator = ai.StaticGenerator{}
	}

	authService := auth.NewAuthService(userRepo, tokenService, mailer, cfg.BcryptCost)
	moodService := mood.NewService(moodRepo, generator)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, cfg.RefreshTTL)
	moodHandler := handlers.NewMoodHandler(moodService)
	healthHandler := handlers.NewHealthHandler(database)

	// Create router
	router := httphandler.NewRouter(authHandler, moodHandler, healthHandler, tokenService, userRepo)

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// runMigrations runs database migrations using goose
func runMigrations(database *sql.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	migrationDir := "internal/db/migrations"
	if info, err := os.Stat(migrationDir); err != nil || !info.IsDir() {
		return fmt.Errorf("migrations directory not found (run from repo root)")
	}

	absDir, _ := filepath.Abs(migrationDir)
	log.Printf("Running migrations from %s", absDir)

	if err := goose.Up(database, migrationDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
