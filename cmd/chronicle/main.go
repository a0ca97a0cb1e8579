package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lawnchairsociety/chronicle/internal/config"
	"github.com/lawnchairsociety/chronicle/internal/database"
	"github.com/lawnchairsociety/chronicle/internal/logger"
	"github.com/lawnchairsociety/chronicle/internal/rules"
	"github.com/lawnchairsociety/chronicle/internal/server"
	"github.com/lawnchairsociety/chronicle/internal/telemetry"
)

func main() {
	configFile := flag.String("config", "data/server.yaml", "Path to server config YAML file")
	envFile := flag.String("env", ".env", "Path to an optional .env file")
	promptsFile := flag.String("prompts", "", "Path to prompts YAML file (overrides game.prompts_file)")
	endGame := flag.Int64("end-game", 0, "Mark the vampire with this id as finished and exit")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("Failed to load %s: %v", *envFile, err)
	}

	// Initialize logger first (before any logging)
	logConfig, err := logger.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load logging config: %v", err)
	}
	if err := logger.Initialize(logConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		logger.Warning("Failed to load server config, using defaults", "path", *configFile, "error", err)
		cfg = config.DefaultConfig()
	}
	if *promptsFile != "" {
		cfg.Game.PromptsFile = *promptsFile
	}

	db, err := database.OpenWithConfig(cfg.Database.StorageConfig())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	logger.Info("Database initialized", "driver", cfg.Database.Driver)

	if *endGame != 0 {
		handleEndGame(db, *endGame)
		return
	}

	logger.Always("Starting chronicle server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		log.Fatalf("Failed to set up telemetry: %v", err)
	}

	prompts, err := rules.LoadPromptsFromYAML(cfg.Game.PromptsFile)
	if err != nil {
		logger.Warning("Failed to load prompts, using stored prompts", "path", cfg.Game.PromptsFile, "error", err)
	} else if err := db.SeedPrompts(prompts); err != nil {
		log.Fatalf("Failed to seed prompts: %v", err)
	} else {
		logger.Info("Prompts loaded", "count", len(prompts))
	}

	if !cfg.Game.FallbackEnabled {
		logger.Info("Text matching fallback disabled")
	}
	if len(cfg.WebSocket.AllowedOrigins) == 0 {
		logger.Info("WebSocket CORS policy", "mode", "same-origin")
	} else if len(cfg.WebSocket.AllowedOrigins) == 1 && cfg.WebSocket.AllowedOrigins[0] == "*" {
		logger.Warning("WebSocket CORS allows all origins (not recommended for production)")
	} else {
		logger.Info("WebSocket CORS policy", "allowed_origins", cfg.WebSocket.AllowedOrigins)
	}

	srv := server.NewServer(cfg, db, nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Always("Chronicle server running", "addr", cfg.HTTP.Addr)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", "error", err)
		}
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warning("Server shutdown incomplete", "error", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Warning("Telemetry shutdown failed", "error", err)
	}
	logger.Always("Server stopped")
}

// handleEndGame finishes a vampire's chronicle and exits.
func handleEndGame(db *database.Database, vampireID int64) {
	v, err := db.GetVampire(vampireID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Vampire %d not found\n", vampireID)
		os.Exit(1)
	}

	if v.GameEnded {
		fmt.Printf("The chronicle of %s has already ended.\n", v.Name)
		return
	}

	if err := db.SetGameEnded(vampireID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to end game: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("The chronicle of %s has ended.\n", v.Name)
}
