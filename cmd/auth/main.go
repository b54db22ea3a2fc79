package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/aussiebroadwan/mealvote/internal/auth/app"
)

func main() {
	// A missing .env file is fine, the environment may already be set.
	_ = godotenv.Load()

	paths := []string{"config.yaml"}
	if p := os.Getenv("MEALVOTE_CONFIG_FILE"); p != "" {
		paths = append(paths, p)
	}

	cfg, err := app.LoadConfig(paths...)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
