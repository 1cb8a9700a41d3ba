package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditBulkBilling      AuditAction = "bulk_billing"
	AuditImportConfirmed  AuditAction = "import_confirmed"
	AuditCostCreated      AuditAction = "cost_created"
	AuditCostCancelled    AuditAction = "cost_cancelled"
	AuditPaymentCreated   AuditAction = "payment_created"
	AuditPaymentDeleted   AuditAction = "payment_deleted"
	AuditCostsGenerated   AuditAction = "recurring_generated"
	AuditStatementDeleted AuditAction = "statement_deleted"
)

type AuditLogEntry struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Action      AuditAction    `gorm:"index" json:"action"`
	Description string         `json:"description"`
	Details     datatypes.JSON `json:"details"`
	CreatedAt   time.Time      `json:"createdAt"`
}
