package cve

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteRepository implements ports.CVERepository using SQLite.
// The CVE cache lives in its own database file, separate from the main
// application store, so it can be rebuilt or shipped independently.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-based CVE repository.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// UpsertCVE inserts or updates a CVE record keyed by its CVE ID.
func (r *SQLiteRepository) UpsertCVE(ctx context.Context, cve domain.CVERecord) error {
	query := `
		INSERT INTO cve_records (
			cve_id, title, description, cvss_score, confidence,
			published_date, last_modified
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cve_id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			cvss_score = excluded.cvss_score,
			confidence = excluded.confidence,
			published_date = excluded.published_date,
			last_modified = excluded.last_modified,
			updated_at = CURRENT_TIMESTAMP
	`

	var score sql.NullFloat64
	if cve.CVSSScore != nil {
		score = sql.NullFloat64{Float64: *cve.CVSSScore, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		cve.ID, cve.Title, cve.Description, score, string(cve.Confidence),
		timeToColumn(cve.PublishedDate), timeToColumn(cve.LastModified),
	)

	return err
}

// GetByID retrieves a specific CVE by its ID. Returns nil without error
// when the record is absent.
func (r *SQLiteRepository) GetByID(ctx context.Context, cveID string) (*domain.CVERecord, error) {
	query := `
		SELECT cve_id, title, description, cvss_score, confidence,
		       published_date, last_modified
		FROM cve_records
		WHERE cve_id = ?
	`

	row := r.db.QueryRowContext(ctx, query, cveID)
	cve, err := scanCVERecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get CVE: %w", err)
	}

	return &cve, nil
}

// GetByIDs retrieves the records for the given CVE IDs. Missing IDs are
// silently skipped.
func (r *SQLiteRepository) GetByIDs(ctx context.Context, cveIDs []string) ([]domain.CVERecord, error) {
	if len(cveIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(cveIDs))
	placeholders = placeholders[:len(placeholders)-1]

	query := fmt.Sprintf(`
		SELECT cve_id, title, description, cvss_score, confidence,
		       published_date, last_modified
		FROM cve_records
		WHERE cve_id IN (%s)
		ORDER BY cvss_score DESC
	`, placeholders)

	args := make([]interface{}, len(cveIDs))
	for i, id := range cveIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var cves []domain.CVERecord
	for rows.Next() {
		cve, err := scanCVERecord(rows)
		if err != nil {
			return nil, err
		}
		cves = append(cves, cve)
	}

	return cves, rows.Err()
}

// GetTotalCount returns the total number of CVE records.
func (r *SQLiteRepository) GetTotalCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cve_records").Scan(&count)
	return count, err
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCVERecord(row rowScanner) (domain.CVERecord, error) {
	var cve domain.CVERecord
	var score sql.NullFloat64
	var confidence string
	var publishedDate, lastModified sql.NullString

	err := row.Scan(
		&cve.ID, &cve.Title, &cve.Description, &score, &confidence,
		&publishedDate, &lastModified,
	)
	if err != nil {
		return cve, err
	}

	if score.Valid {
		v := score.Float64
		cve.CVSSScore = &v
	}
	cve.Confidence = domain.MatchConfidence(confidence)
	cve.PublishedDate = columnToTime(publishedDate)
	cve.LastModified = columnToTime(lastModified)

	return cve, nil
}

func timeToColumn(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func columnToTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, s.String)
	return t
}
