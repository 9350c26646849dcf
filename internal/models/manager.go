package models

import "time"

type Manager struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time

	// Relationships
	User        User               `gorm:"foreignKey:ID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Assignments []DetectiveManager `gorm:"foreignKey:ManagerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
