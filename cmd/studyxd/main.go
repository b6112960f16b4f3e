package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"studyx-backend/config"
	"studyx-backend/internal/api"
	"studyx-backend/internal/db"
	"studyx-backend/internal/mailer"
	"studyx-backend/internal/push"
	"studyx-backend/internal/relay"
	"studyx-backend/internal/store"
	"studyx-backend/internal/vapid"
)

func main() {
	genKeys := flag.Bool("genkeys", false, "generate a fresh VAPID key pair and exit")
	flag.Parse()

	logger := log.New(os.Stdout, "studyx-backend ", log.LstdFlags)

	if *genKeys {
		privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
		if err != nil {
			logger.Fatalf("failed to generate VAPID keys: %v", err)
		}
		fmt.Printf("VAPID_PUBLIC_KEY=%s\nVAPID_PRIVATE_KEY=%s\n", publicKey, privateKey)
		return
	}

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	// VAPID keys are required: a dispatch without them would fail every
	// single subscription identically, so refuse to start instead.
	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Fatalf("VAPID keys must be configured. Run with -genkeys to generate a pair.")
	}
	signer, err := vapid.NewSigner(cfg.Push.PublicKey, cfg.Push.PrivateKey, cfg.Push.Subject)
	if err != nil {
		logger.Fatalf("failed to initialize VAPID signer: %v", err)
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	appStore := store.NewGormStore(gormDB)
	contentRelay := relay.New(appStore)
	dispatcher := push.NewDispatcher(appStore, signer, &cfg.Push)

	mail := mailer.New(&cfg.Mail)
	if mail == nil {
		logger.Println("feedback email is disabled (no mailgun credentials)")
	}

	// Initialize router
	handler := api.NewHandler(appStore, contentRelay, dispatcher, mail, signer.PublicKey())
	router := api.NewRouter(handler, &cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
