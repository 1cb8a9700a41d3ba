package models

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentAllocated PaymentStatus = "allocated"
	PaymentConfirmed PaymentStatus = "confirmed"
)

type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCash         PaymentMethod = "cash"
	MethodCard         PaymentMethod = "card"
	MethodOther        PaymentMethod = "other"
)

// Payment is money received from a parent. ParentID may be nil for payments
// imported from the bank that could not be matched; PayerName then carries
// the name as printed on the statement. A confirmed payment has allocations
// summing exactly to Amount.
type Payment struct {
	ID                uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ParentID          *uuid.UUID    `gorm:"index" json:"parentId"`
	PayerName         string        `json:"payerName"`
	Amount            float64       `json:"amount"`
	PaymentDate       time.Time     `json:"paymentDate"`
	PaymentMethod     PaymentMethod `json:"paymentMethod"`
	ReferenceNumber   string        `json:"referenceNumber"`
	Notes             string        `json:"notes"`
	ImportedFromBank  bool          `json:"importedFromBank"`
	BankTransactionID *uuid.UUID    `gorm:"index" json:"bankTransactionId"`
	Status            PaymentStatus `gorm:"index" json:"status"`
	CreatedAt         time.Time     `json:"createdAt"`
}

// PaymentAllocation assigns part or all of a payment to one cost.
type PaymentAllocation struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PaymentID       uuid.UUID `gorm:"index" json:"paymentId"`
	CostID          uuid.UUID `gorm:"index" json:"costId"`
	AllocatedAmount float64   `json:"allocatedAmount"`
	CreatedAt       time.Time `json:"createdAt"`
}
