package models

import (
	"time"

	"github.com/google/uuid"
)

// Group is a training group led by one coach.
type Group struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"uniqueIndex" json:"name"`
	CoachID   *uuid.UUID `json:"coachId"`
	CreatedAt time.Time  `json:"createdAt"`
}

type Coach struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
}
