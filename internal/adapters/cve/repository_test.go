package cve

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
)

func score(v float64) *float64 { return &v }

func TestSQLiteRepository(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cve_test.db")

	repo, err := NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()

	t.Run("UpsertCVE", func(t *testing.T) {
		cve := domain.CVERecord{
			ID:            "CVE-2021-41773",
			Title:         "CVE-2021-41773",
			Description:   "Path traversal in Apache HTTP Server 2.4.49",
			CVSSScore:     score(7.5),
			Confidence:    domain.ConfidenceHigh,
			PublishedDate: time.Date(2021, 10, 5, 0, 0, 0, 0, time.UTC),
		}

		if err := repo.UpsertCVE(ctx, cve); err != nil {
			t.Errorf("UpsertCVE failed: %v", err)
		}

		retrieved, err := repo.GetByID(ctx, "CVE-2021-41773")
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if retrieved == nil {
			t.Fatal("CVE not found after insert")
		}
		if retrieved.Description != cve.Description {
			t.Errorf("Description mismatch: got %q", retrieved.Description)
		}
		if retrieved.CVSSScore == nil || *retrieved.CVSSScore != 7.5 {
			t.Errorf("CVSSScore mismatch: got %v", retrieved.CVSSScore)
		}
		if retrieved.Confidence != domain.ConfidenceHigh {
			t.Errorf("Confidence mismatch: got %s", retrieved.Confidence)
		}
		if !retrieved.PublishedDate.Equal(cve.PublishedDate) {
			t.Errorf("PublishedDate mismatch: got %v", retrieved.PublishedDate)
		}
	})

	t.Run("UpsertOverwritesByID", func(t *testing.T) {
		updated := domain.CVERecord{
			ID:          "CVE-2021-41773",
			Title:       "CVE-2021-41773",
			Description: "Updated description",
			CVSSScore:   score(9.8),
			Confidence:  domain.ConfidenceMedium,
		}
		if err := repo.UpsertCVE(ctx, updated); err != nil {
			t.Fatalf("UpsertCVE failed: %v", err)
		}

		retrieved, err := repo.GetByID(ctx, "CVE-2021-41773")
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if retrieved.Description != "Updated description" {
			t.Errorf("Expected updated description, got %q", retrieved.Description)
		}
		if *retrieved.CVSSScore != 9.8 {
			t.Errorf("Expected updated score, got %v", *retrieved.CVSSScore)
		}

		count, err := repo.GetTotalCount(ctx)
		if err != nil {
			t.Fatalf("GetTotalCount failed: %v", err)
		}
		if count != 1 {
			t.Errorf("Upsert must not duplicate: got %d records", count)
		}
	})

	t.Run("NilScoreRoundTrips", func(t *testing.T) {
		cve := domain.CVERecord{
			ID:          "CVE-2024-0001",
			Description: "No metric published yet",
			Confidence:  domain.ConfidenceLow,
		}
		if err := repo.UpsertCVE(ctx, cve); err != nil {
			t.Fatalf("UpsertCVE failed: %v", err)
		}

		retrieved, err := repo.GetByID(ctx, "CVE-2024-0001")
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if retrieved.CVSSScore != nil {
			t.Errorf("Expected nil score, got %v", *retrieved.CVSSScore)
		}
	})

	t.Run("GetByIDs", func(t *testing.T) {
		cves, err := repo.GetByIDs(ctx, []string{"CVE-2021-41773", "CVE-2024-0001", "CVE-MISSING"})
		if err != nil {
			t.Fatalf("GetByIDs failed: %v", err)
		}
		if len(cves) != 2 {
			t.Fatalf("Expected 2 records, got %d", len(cves))
		}
		// Ordered by score descending, nulls last
		if cves[0].ID != "CVE-2021-41773" {
			t.Errorf("Expected highest score first, got %s", cves[0].ID)
		}

		empty, err := repo.GetByIDs(ctx, nil)
		if err != nil {
			t.Fatalf("GetByIDs(nil) failed: %v", err)
		}
		if empty != nil {
			t.Errorf("Expected nil for empty input, got %v", empty)
		}
	})

	t.Run("GetByIDMissing", func(t *testing.T) {
		retrieved, err := repo.GetByID(ctx, "CVE-NOPE")
		if err != nil {
			t.Errorf("GetByID must not error on absence: %v", err)
		}
		if retrieved != nil {
			t.Errorf("Expected nil for missing record, got %v", retrieved)
		}
	})
}

func TestSeedLoader(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cve_seed.db")

	repo, err := NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer repo.Close()

	seedPath := filepath.Join(dir, "seed.json")
	seed := `[
		{"cve_id": "CVE-2019-6111", "description": "scp client issue", "cvss_score": 5.9},
		{"cve_id": "", "description": "invalid entry, no id"},
		{"cve_id": "CVE-2018-15473", "description": "OpenSSH user enumeration", "cvss_score": 5.3}
	]`
	if err := os.WriteFile(seedPath, []byte(seed), 0o644); err != nil {
		t.Fatalf("Failed to write seed file: %v", err)
	}

	loader := NewSeedLoader(repo)
	if err := loader.LoadFromFile(context.Background(), seedPath); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	count, err := repo.GetTotalCount(context.Background())
	if err != nil {
		t.Fatalf("GetTotalCount failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 seeded records, got %d", count)
	}

	if err := loader.LoadFromFile(context.Background(), filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing seed file")
	}
}
