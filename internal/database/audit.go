package database

import (
	"context"
	"encoding/json"
	"log/slog"

	"prefect-admin/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateAuditLog appends an audit entry. Failures are logged and dropped;
// the audit trail never blocks the operation it describes.
func CreateAuditLog(ctx context.Context, db *gorm.DB, userID uint, entity string, entityID uint, action, details string, payload any) {
	if db == nil || userID == 0 {
		return
	}
	record := models.AuditLog{
		UserID:   userID,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Details:  details,
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			slog.WarnContext(ctx, "audit payload not encodable", "entity", entity, "error", err)
		} else {
			record.Payload = datatypes.JSON(raw)
		}
	}
	if err := db.WithContext(ctx).Create(&record).Error; err != nil {
		slog.WarnContext(ctx, "failed to write audit log", "entity", entity, "entity_id", entityID, "error", err)
	}
}
