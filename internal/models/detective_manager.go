package models

import "time"

// DetectiveManager links a manager to a detective. A detective may report
// to any number of managers and vice versa.
type DetectiveManager struct {
	ManagerID   string `gorm:"type:uuid;primaryKey"`
	DetectiveID string `gorm:"type:uuid;primaryKey"`
	CreatedAt   time.Time
}

func (DetectiveManager) TableName() string {
	return "detective_manager"
}
