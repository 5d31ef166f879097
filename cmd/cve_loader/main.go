package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/adapters/cve"
)

func main() {
	seedFile := flag.String("seed-file", "./configs/cve_seed.json", "Path to CVE seed JSON file")
	dbPath := flag.String("db-path", "./data/cve_cache.db", "Path to CVE cache database")
	flag.Parse()

	log.Println("=== CVE Seed Loader ===")
	log.Printf("Seed file: %s", *seedFile)
	log.Printf("Database: %s", *dbPath)

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	repo, err := cve.NewSQLiteRepository(*dbPath)
	if err != nil {
		log.Fatalf("Failed to create repository: %v", err)
	}
	defer repo.Close()

	loader := cve.NewSeedLoader(repo)
	ctx := context.Background()

	if err := loader.LoadFromFile(ctx, *seedFile); err != nil {
		log.Fatalf("Failed to load seed data: %v", err)
	}

	count, _ := repo.GetTotalCount(ctx)
	log.Printf("✓ Database now contains %d CVEs", count)
}
