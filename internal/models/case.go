package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CaseStatusOpen       = "open"
	CaseStatusInProgress = "in_progress"
	CaseStatusClosed     = "closed"
)

// ValidCaseStatus reports whether s is one of the three case statuses.
func ValidCaseStatus(s string) bool {
	return s == CaseStatusOpen || s == CaseStatusInProgress || s == CaseStatusClosed
}

// Case is a unit of investigative work. DetectiveID is the assigned
// detective (nil = unassigned), ManagerID the owning manager.
type Case struct {
	ID          string  `gorm:"type:uuid;primaryKey"`
	Title       string  `gorm:"not null"`
	Details     string  `gorm:"not null"`
	Location    string  `gorm:"not null"`
	Status      string  `gorm:"not null;default:open"`
	DetectiveID *string `gorm:"type:uuid;index"`
	ManagerID   *string `gorm:"type:uuid;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Relationships
	Detective *Detective `gorm:"foreignKey:DetectiveID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	Manager   *Manager   `gorm:"foreignKey:ManagerID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
}

func (c *Case) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
