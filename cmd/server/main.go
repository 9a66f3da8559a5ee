// Package main is the entry point for the salon scheduler server.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendarapi "google.golang.org/api/calendar/v3"

	"github.com/salon-scheduler/backend/internal/api"
	"github.com/salon-scheduler/backend/internal/provider"
	"github.com/salon-scheduler/backend/internal/storage"
	"github.com/salon-scheduler/backend/internal/token"
	"github.com/salon-scheduler/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// Defaults to "dev" when not provided.
var version = "dev"

func main() {
	// Parse command-line flags
	addr := flag.String("addr", ":8099", "HTTP server address")
	dataDir := flag.String("data", "/data", "Data directory for SQLite database")
	staticDir := flag.String("static", "./static", "Directory for static frontend files")
	healthCheck := flag.Bool("health-check", false, "Run health check and exit")
	flag.Parse()

	// Health check mode for Docker HEALTHCHECK
	if *healthCheck {
		if err := runHealthCheck(*addr); err != nil {
			log.Fatalf("Health check failed: %v", err)
		}
		os.Exit(0)
	}

	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}

	log.Printf("Starting salon scheduler (version: %s)...", version)

	// Key material comes from the environment only; it is never logged.
	hashKey := os.Getenv("TOKEN_HASH_KEY")
	if hashKey == "" {
		log.Fatal("TOKEN_HASH_KEY is required")
	}
	credentialKey := os.Getenv("CREDENTIAL_KEY")
	if credentialKey == "" {
		log.Fatal("CREDENTIAL_KEY is required")
	}

	tokenManager, err := token.NewManager([]byte(hashKey), []byte(credentialKey))
	if err != nil {
		log.Fatalf("Failed to initialize token manager: %v", err)
	}

	rateLimitMax := envInt("RATE_LIMIT_MAX", 30)
	rateLimitWindow := time.Duration(envInt("RATE_LIMIT_WINDOW_SEC", 60)) * time.Second
	feedLimiter := token.NewMemoryLimiter(rateLimitMax, rateLimitWindow)

	// Initialize database
	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data directory %q: %v", *dataDir, err)
	}
	dbPath := *dataDir + "/salon-scheduler.db"
	db, err := storage.NewDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := storage.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations complete")

	settings, err := storage.LoadSettings(context.Background(), db)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	if days := envInt("TOKEN_LIFETIME_DAYS", 0); days > 0 {
		settings.TokenLifetimeDays = days
		if err := storage.SaveSetting(context.Background(), db, "token_lifetime_days", strconv.Itoa(days)); err != nil {
			log.Printf("Warning: Failed to persist token lifetime: %v", err)
		}
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize repositories used outside the router
	connRepo := storage.NewConnectionRepository(db)
	apptRepo := storage.NewAppointmentRepository(db)

	// Provider OAuth application credentials; sync stays disabled without them.
	oauthCfg := &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		Endpoint:     google.Endpoint,
		Scopes:       []string{calendarapi.CalendarEventsScope},
	}

	business := provider.BusinessContext{
		Name:     settings.BusinessName,
		URL:      settings.BusinessURL,
		TimeZone: settings.BusinessTimeZone,
	}

	syncService := provider.NewSyncService(connRepo, apptRepo, tokenManager, oauthCfg, business)
	scheduler := provider.NewScheduler(syncService, hub, feedLimiter, settings.SyncIntervalMin)

	if err := scheduler.Start(); err != nil {
		log.Printf("Warning: Failed to start provider scheduler: %v", err)
	}

	// Initialize HTTP router
	router := api.NewRouter(api.Config{
		DB:           db,
		Hub:          hub,
		StaticDir:    *staticDir,
		TokenManager: tokenManager,
		FeedLimiter:  feedLimiter,
		Scheduler:    scheduler,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("Server listening on %s", *addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	scheduler.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// envInt reads an integer environment variable, falling back on absence or
// parse failure.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Ignoring invalid %s=%q", name, raw)
		return fallback
	}
	return value
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	url := "http://localhost" + addr + "/api/health"
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return http.ErrAbortHandler
	}
	return nil
}
