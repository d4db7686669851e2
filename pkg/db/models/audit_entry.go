package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/harborops/seaprocure-backend/pkg/enums"
)

// AuditEntry is one append-only row in the audit trail. Entries are never
// mutated or deleted; ordering is by timestamp with Seq breaking ties in
// insertion order.
type AuditEntry struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Seq           int64             `gorm:"column:seq;autoIncrement;->"`
	EntityID      uuid.UUID         `gorm:"column:entity_id;type:uuid;not null;index"`
	EntityType    string            `gorm:"column:entity_type;not null"`
	Action        enums.AuditAction `gorm:"column:action;type:text;not null"`
	UserID        uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	DelegatedFrom *uuid.UUID        `gorm:"column:delegated_from;type:uuid"`
	IPAddress     string            `gorm:"column:ip_address"`
	UserAgent     string            `gorm:"column:user_agent"`
	Details       map[string]any    `gorm:"column:details;type:jsonb;serializer:json"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
}
