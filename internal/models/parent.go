package models

import (
	"time"

	"github.com/google/uuid"
)

// Parent is the billing-responsible payer for one or more members.
type Parent struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	IBAN      string    `gorm:"index" json:"iban"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p *Parent) FullName() string {
	return p.FirstName + " " + p.LastName
}
