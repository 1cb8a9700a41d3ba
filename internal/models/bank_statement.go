package models

import (
	"time"

	"github.com/google/uuid"
)

type StatementStatus string

const (
	StatementProcessing StatementStatus = "processing"
	StatementCompleted  StatementStatus = "completed"
	StatementFailed     StatementStatus = "failed"
)

// BankStatement is one imported statement file (camt.052 XML).
type BankStatement struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	FileName              string          `json:"fileName"`
	AccountIBAN           string          `json:"accountIban"`
	MessageID             string          `json:"messageId"`
	ImportedAt            time.Time       `json:"importedAt"`
	Status                StatementStatus `gorm:"index" json:"status"`
	TotalTransactions     int             `json:"totalTransactions"`
	MatchedTransactions   int             `json:"matchedTransactions"`
	UnmatchedTransactions int             `json:"unmatchedTransactions"`
	SkippedTransactions   int             `json:"skippedTransactions"`
}
