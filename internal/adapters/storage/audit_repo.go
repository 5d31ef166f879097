package storage

import (
	"context"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/ports"
)

// Ensure compliance
var _ ports.AuditRepository = (*SQLiteAdapter)(nil)

// SaveAuditLog persists a single audit entry.
func (a *SQLiteAdapter) SaveAuditLog(ctx context.Context, log domain.AuditLog) error {
	return a.db.WithContext(ctx).Create(&log).Error
}

// ListAuditLogs retrieves the most recent audit entries.
func (a *SQLiteAdapter) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	var logs []domain.AuditLog
	if err := a.db.WithContext(ctx).Order("timestamp desc").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
