package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"umbral-nexus/server/internal/app"
	"umbral-nexus/server/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := app.Run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}
