package store

import (
	"context"

	"prefect-admin/internal/models"
)

// ListAuditLogs returns the latest entries, newest first.
func (s *Store) ListAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error) {
	out := []models.AuditLog{}
	err := s.conn(ctx).
		Preload("User").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (s *Store) ListAuditLogsForEntity(ctx context.Context, entity string, entityID uint) ([]models.AuditLog, error) {
	out := []models.AuditLog{}
	err := s.conn(ctx).
		Where("entity = ? AND entity_id = ?", entity, entityID).
		Preload("User").
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}
