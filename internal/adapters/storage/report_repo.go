package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/ports"
)

// ReportRepo implements ports.ReportRepository over the shared database.
// It is a separate type because finding and report listings would otherwise
// collide on the same method name.
type ReportRepo struct {
	db *gorm.DB
}

// Reports returns the report repository view of the adapter.
func (a *SQLiteAdapter) Reports() *ReportRepo {
	return &ReportRepo{db: a.db}
}

// SaveReport inserts a new report row. Regeneration after a rejection
// creates a fresh row; the rejected one stays for the audit trail.
func (r *ReportRepo) SaveReport(ctx context.Context, report domain.Report) error {
	model := reportToModel(report)
	return r.db.WithContext(ctx).Create(&model).Error
}

// GetReport retrieves a report by ID.
func (r *ReportRepo) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	var model ReportModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReportNotFound
		}
		return nil, err
	}
	report := reportToDomain(model)
	return &report, nil
}

// UpdateReport persists the full report state.
func (r *ReportRepo) UpdateReport(ctx context.Context, report domain.Report) error {
	model := reportToModel(report)
	return r.db.WithContext(ctx).Save(&model).Error
}

// ListByScan returns all report revisions of a scan, newest first.
func (r *ReportRepo) ListByScan(ctx context.Context, scanID string) ([]domain.Report, error) {
	var models []ReportModel
	if err := r.db.WithContext(ctx).
		Where("scan_id = ?", scanID).
		Order("created_at desc").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return reportsToDomain(models), nil
}

// ListByStatus returns reports in the given review state, oldest first so
// the review queue is worked in submission order.
func (r *ReportRepo) ListByStatus(ctx context.Context, status domain.ReportStatus, limit int) ([]domain.Report, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("created_at asc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []ReportModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return reportsToDomain(models), nil
}

// Ensure interface compliance
var _ ports.ReportRepository = (*ReportRepo)(nil)
