package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type AdventureModel struct {
	ID           string `gorm:"primaryKey"`
	Title        string `gorm:"not null"`
	Location     string
	Description  string    `gorm:"type:text"`
	StartDate    time.Time `gorm:"not null"`
	EndDate      time.Time `gorm:"not null"`
	DurationDays int
	DistanceKM   float64
	MediaCount   int
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

type StopModel struct {
	ID          string `gorm:"primaryKey"`
	AdventureID string `gorm:"not null;index"`
	Name        string `gorm:"not null"`
	PhotoCount  int
	Position    int `gorm:"not null"`
}

type MediaModel struct {
	ID          string `gorm:"primaryKey"`
	AdventureID string `gorm:"not null;index"`
	Filename    string `gorm:"not null"`
	ContentType string
	StorageKey  string `gorm:"not null"`
	SizeBytes   int64
	CreatedAt   time.Time `gorm:"not null"`
}

// AIConfigModel holds the single generation-settings row (id is always 1).
type AIConfigModel struct {
	ID             int    `gorm:"primaryKey"`
	Provider       string `gorm:"not null"`
	Model          string
	AutoGenerate   bool
	VertexProject  string
	VertexLocation string
	UpdatedAt      time.Time `gorm:"not null"`
}

// AISummaryModel caches one generated artifact per (adventure_id, summary_type).
type AISummaryModel struct {
	ID          string `gorm:"primaryKey"`
	AdventureID string `gorm:"not null;uniqueIndex:idx_adventure_summary_type"`
	SummaryType string `gorm:"not null;uniqueIndex:idx_adventure_summary_type"`
	Content     string `gorm:"type:text"`
	Highlights  datatypes.JSON
	Model       string
	TokensUsed  int
	UpdatedAt   time.Time `gorm:"not null"`
}
