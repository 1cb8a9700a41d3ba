package models

import (
	"time"

	"github.com/google/uuid"
)

type CostStatus string

const (
	CostPending   CostStatus = "pending"
	CostPaid      CostStatus = "paid"
	CostCancelled CostStatus = "cancelled"
)

type RecurringPeriod string

const (
	PeriodWeekly    RecurringPeriod = "weekly"
	PeriodMonthly   RecurringPeriod = "monthly"
	PeriodQuarterly RecurringPeriod = "quarterly"
	PeriodYearly    RecurringPeriod = "yearly"
)

// Cost is an obligation owed by a member. A cost with IsRecurring set and no
// RecurringTemplateID acts as a template from which the scheduler generates
// dated instances; generated instances carry RecurringTemplateID and are
// never recurring themselves.
type Cost struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	MemberID    uuid.UUID  `gorm:"index" json:"memberId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Amount      float64    `gorm:"index" json:"amount"`
	CostTypeID  uuid.UUID  `gorm:"index" json:"costTypeId"`
	DueDate     *time.Time `json:"dueDate"`
	Status      CostStatus `gorm:"index" json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`

	IsRecurring         bool             `json:"isRecurring"`
	RecurringPeriod     *RecurringPeriod `json:"recurringPeriod"`
	RecurringStartDate  *time.Time       `json:"recurringStartDate"`
	RecurringEndDate    *time.Time       `json:"recurringEndDate"`
	RecurringDayOfMonth *int             `json:"recurringDayOfMonth"`
	RecurringTemplateID *uuid.UUID       `gorm:"index" json:"recurringTemplateId"`
}

// IsTemplate reports whether this cost is a recurring template rather than a
// generated instance.
func (c *Cost) IsTemplate() bool {
	return c.IsRecurring && c.RecurringTemplateID == nil
}

// CostType is a preset cost category (training fees, equipment, ...). Names
// are unique.
type CostType struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
