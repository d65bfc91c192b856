package models

import "time"

// ModelSetting persists whether a catalog model may be selected for generation.
type ModelSetting struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Provider  string    `gorm:"size:50;not null;index:idx_model_provider" json:"provider"`
	ModelKey  string    `gorm:"size:255;not null;uniqueIndex" json:"modelKey"`
	Enabled   bool      `gorm:"not null;default:true" json:"enabled"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`
}
