package models

import "time"

type Detective struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time

	// Relationships
	User        User               `gorm:"foreignKey:ID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Assignments []DetectiveManager `gorm:"foreignKey:DetectiveID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
