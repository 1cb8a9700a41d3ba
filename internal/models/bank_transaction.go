package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TransactionStatus string

const (
	TransactionMatched   TransactionStatus = "matched"
	TransactionUnmatched TransactionStatus = "unmatched"
	TransactionConfirmed TransactionStatus = "confirmed"
)

type MatchConfidence string

const (
	ConfidenceHigh   MatchConfidence = "high"
	ConfidenceMedium MatchConfidence = "medium"
	ConfidenceLow    MatchConfidence = "low"
	ConfidenceNone   MatchConfidence = "none"
)

// BankTransaction is one credit entry from an imported statement.
// BankReference is the bank-assigned id used to deduplicate re-imports; for
// entries where the bank supplies none it holds a generated fallback id and
// re-imports of such entries will duplicate.
type BankTransaction struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	BankStatementID uuid.UUID         `gorm:"index" json:"bankStatementId"`
	TransactionDate time.Time         `gorm:"column:transaction_date" json:"transactionDate"`
	Amount          float64           `json:"amount"`
	Currency        string            `json:"currency"`
	PayerName       string            `json:"payerName"`
	PayerIBAN       string            `json:"payerIban"`
	Description     string            `json:"description"`
	Reference       string            `json:"reference"`
	BankReference   string            `gorm:"index" json:"bankReference"`
	BankFee         float64           `json:"bankFee"`
	MatchedParentID *uuid.UUID        `gorm:"index" json:"matchedParentId"`
	MatchConfidence MatchConfidence   `json:"matchConfidence"`
	MatchDetails    datatypes.JSON    `json:"matchDetails"`
	Status          TransactionStatus `gorm:"index" json:"status"`
	PaymentID       *uuid.UUID        `json:"paymentId"`
	CreatedAt       time.Time         `json:"createdAt"`
}
