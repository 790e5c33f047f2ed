package main

import (
	"log"

	"github.com/fitclub-ch/fitclub-server/internal/app"
	"github.com/fitclub-ch/fitclub-server/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := a.Run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}
