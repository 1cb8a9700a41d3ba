package models

import (
	"time"

	"github.com/google/uuid"
)

type MemberStatus string

const (
	MemberActive   MemberStatus = "active"
	MemberInactive MemberStatus = "inactive"
	MemberArchived MemberStatus = "archived"
)

// Member is a club athlete. Billing responsibility lies with the linked
// parents; the links live in the member_parents join table and are surfaced
// here as ParentIDs.
type Member struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName   string       `json:"firstName"`
	LastName    string       `json:"lastName"`
	DateOfBirth *time.Time   `json:"dateOfBirth"`
	Status      MemberStatus `gorm:"index" json:"status"`
	Notes       string       `json:"notes"`
	GroupID     *uuid.UUID   `gorm:"index" json:"groupId"`
	ParentIDs   []uuid.UUID  `gorm:"-" json:"parentIds"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// MemberParent links a member to a billing-responsible parent.
type MemberParent struct {
	MemberID uuid.UUID `gorm:"type:uuid;primaryKey"`
	ParentID uuid.UUID `gorm:"type:uuid;primaryKey"`
}

func (m *Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

// HasParent reports whether the given parent is linked to this member.
func (m *Member) HasParent(parentID uuid.UUID) bool {
	for _, id := range m.ParentIDs {
		if id == parentID {
			return true
		}
	}
	return false
}

// PrimaryParentID returns the first linked parent, used when a match against
// a member name must resolve to a single payer.
func (m *Member) PrimaryParentID() *uuid.UUID {
	if len(m.ParentIDs) == 0 {
		return nil
	}
	id := m.ParentIDs[0]
	return &id
}
