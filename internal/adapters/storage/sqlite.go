package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/ports"
)

// ErrCVEAlreadyAttached is returned when a finding already carries a CVE
// reference and a second enrichment pass tries to overwrite it.
var ErrCVEAlreadyAttached = errors.New("finding already has a CVE attached")

// SQLiteAdapter implements the scan, finding, report, user, and audit
// repositories using GORM and SQLite.
type SQLiteAdapter struct {
	db *gorm.DB
}

// ScanModel is the GORM model for scans.
type ScanModel struct {
	ID            string `gorm:"primaryKey"`
	UserID        string `gorm:"index"`
	Target        string
	RawTarget     string
	TargetType    string
	Profile       string
	Status        string `gorm:"index"`
	CVEEnriched   bool
	FindingsCount int
	Error         string
	CreatedAt     time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
}

// FindingModel is the GORM model for scan findings.
type FindingModel struct {
	ID             string `gorm:"primaryKey"`
	ScanID         string `gorm:"index"`
	Host           string
	Port           int
	State          string
	ServiceName    string
	ServiceVersion string
	CVEID          string
	Confidence     string
	RawBanner      string
	Headers        string // JSON encoded map[string]string
	TLSInfo        string
	CreatedAt      time.Time
}

// ReportModel is the GORM model for review-workflow reports.
type ReportModel struct {
	ID           string `gorm:"primaryKey"`
	ScanID       string `gorm:"index"`
	Status       string `gorm:"index"`
	Summary      string
	PDFURL       string
	ConsultantID string
	ReviewNotes  string
	RiskScore    float64
	RiskLevel    string
	CreatedAt    time.Time
	ReviewedAt   *time.Time
}

// NewSQLiteAdapter initializes the database and migrates the schema.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&ScanModel{}, &FindingModel{}, &ReportModel{},
		&domain.User{}, &domain.AuditLog{},
	); err != nil {
		return nil, err
	}

	db.Exec("CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scan_models(created_at)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_findings_cve_id ON finding_models(cve_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_reports_created_at ON report_models(created_at)")

	return &SQLiteAdapter{db: db}, nil
}

// SaveScan inserts or updates a scan.
func (a *SQLiteAdapter) SaveScan(ctx context.Context, scan domain.Scan) error {
	model := scanToModel(scan)
	return a.db.WithContext(ctx).Save(&model).Error
}

// GetScan retrieves a scan by ID.
func (a *SQLiteAdapter) GetScan(ctx context.Context, id string) (*domain.Scan, error) {
	var model ScanModel
	if err := a.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("scan not found")
		}
		return nil, err
	}
	scan := scanToDomain(model)
	return &scan, nil
}

// ListScans returns the scan history, newest first. An empty userID lists
// scans for all users.
func (a *SQLiteAdapter) ListScans(ctx context.Context, userID string, limit int) ([]domain.Scan, error) {
	query := a.db.WithContext(ctx).Order("created_at desc")
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []ScanModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	scans := make([]domain.Scan, len(models))
	for i, m := range models {
		scans[i] = scanToDomain(m)
	}
	return scans, nil
}

// UpdateScanStatus records a status transition. Terminal states also set
// the completion timestamp; completion additionally snapshots the number of
// stored findings, since findings are always persisted before the scan is
// marked completed.
func (a *SQLiteAdapter) UpdateScanStatus(ctx context.Context, id string, status domain.ScanStatus, errMsg string) error {
	updates := map[string]interface{}{
		"status": string(status),
		"error":  errMsg,
	}
	if status == domain.ScanStatusCompleted || status == domain.ScanStatusFailed {
		updates["completed_at"] = time.Now().UTC()
	}
	if status == domain.ScanStatusCompleted {
		var count int64
		if err := a.db.WithContext(ctx).Model(&FindingModel{}).Where("scan_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		updates["findings_count"] = int(count)
	}

	res := a.db.WithContext(ctx).Model(&ScanModel{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("scan not found")
	}
	return nil
}

// MarkEnriched sets the enrichment gate on a scan.
func (a *SQLiteAdapter) MarkEnriched(ctx context.Context, id string) error {
	res := a.db.WithContext(ctx).Model(&ScanModel{}).Where("id = ?", id).Update("cve_enriched", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("scan not found")
	}
	return nil
}

// SaveFindings stores a batch of findings in one transaction.
func (a *SQLiteAdapter) SaveFindings(ctx context.Context, findings []domain.Finding) error {
	if len(findings) == 0 {
		return nil
	}

	models := make([]FindingModel, len(findings))
	for i, f := range findings {
		models[i] = findingToModel(f)
	}

	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(models, 100).Error
	})
}

// ListByScan returns all findings of a scan ordered by host and port.
func (a *SQLiteAdapter) ListByScan(ctx context.Context, scanID string) ([]domain.Finding, error) {
	var models []FindingModel
	if err := a.db.WithContext(ctx).
		Where("scan_id = ?", scanID).
		Order("host, port").
		Find(&models).Error; err != nil {
		return nil, err
	}

	findings := make([]domain.Finding, len(models))
	for i, m := range models {
		findings[i] = findingToDomain(m)
	}
	return findings, nil
}

// AttachCVE sets the finding's CVE reference only when it is still unset.
// The guard lives in the WHERE clause so a concurrent second pass cannot
// overwrite an existing match.
func (a *SQLiteAdapter) AttachCVE(ctx context.Context, findingID, cveID string) error {
	res := a.db.WithContext(ctx).Model(&FindingModel{}).
		Where("id = ? AND (cve_id = '' OR cve_id IS NULL)", findingID).
		Update("cve_id", cveID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		a.db.WithContext(ctx).Model(&FindingModel{}).Where("id = ?", findingID).Count(&count)
		if count > 0 {
			return ErrCVEAlreadyAttached
		}
		return errors.New("finding not found")
	}
	return nil
}

// Close closes the underlying database connection.
func (a *SQLiteAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure interface compliance
var (
	_ ports.ScanRepository    = (*SQLiteAdapter)(nil)
	_ ports.FindingRepository = (*SQLiteAdapter)(nil)
)
