package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/abelzeko/people-counter/internal/config"
	"github.com/abelzeko/people-counter/internal/integration"
	"github.com/abelzeko/people-counter/internal/repository"
	"github.com/abelzeko/people-counter/internal/scheduler"
	"github.com/abelzeko/people-counter/internal/usecases"
)

func main() {
	// Configure logging
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Starting People Counter scraper...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Scraper.URL == "" {
		log.Fatal("SCRAPER_URL environment variable is not set")
	}

	// Initialize repository
	repo, err := repository.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize repository: %v", err)
	}
	defer repo.Close()

	scraper := integration.NewOccupancyScraper(cfg.Scraper.URL, cfg.Scraper.Selector, cfg.Scraper.Timeout)
	useCase := usecases.NewIngestUseCase(usecases.NewPeopleUseCase(repo, loc, nil), scraper, cfg.Scraper.Source)

	s, err := scheduler.New(cfg.Scraper.Schedule, cfg.Scraper.Timeout, "people count refresh", useCase.RefreshCount)
	if err != nil {
		log.Fatalf("Failed to set up scheduler: %v", err)
	}

	// Run immediately on startup
	if err := s.RunNow(useCase.RefreshCount); err != nil {
		log.Printf("Initial count refresh failed: %v", err)
	}

	log.Printf("Scraper has been scheduled with '%s'", cfg.Scraper.Schedule)
	s.Start()

	// Keep the program running until interrupted
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Println("Stopping scraper...")
	s.Stop()
}
