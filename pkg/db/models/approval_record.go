package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/harborops/seaprocure-backend/pkg/enums"
)

// ApprovalRecord is an immutable record of an approval decision. Several may
// exist per requisition; resubmission after rejection appends a new one.
type ApprovalRecord struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	RequisitionID uuid.UUID              `gorm:"column:requisition_id;type:uuid;not null;index"`
	ApproverID    uuid.UUID              `gorm:"column:approver_id;type:uuid;not null"`
	DelegatedFrom *uuid.UUID             `gorm:"column:delegated_from;type:uuid"`
	Decision      enums.ApprovalDecision `gorm:"column:decision;type:text;not null"`
	Comments      string                 `gorm:"column:comments"`
	BudgetCode    *string                `gorm:"column:budget_code"`
	// Synthetic records are appended when a submit auto-approves below the
	// minor-spend limit.
	Synthetic bool      `gorm:"column:synthetic;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
