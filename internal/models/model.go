package models

import (
	"time"
)

// ModelDocument stores one configurator document per model name
type ModelDocument struct {
	ModelID         uint64 `gorm:"primaryKey;autoIncrement"`
	ModelName       string `gorm:"uniqueIndex;size:255;not null"`
	DocumentVersion uint64 `gorm:"not null;default:0"`
	Document        DocumentJSON
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Revisions       []ModelRevision `gorm:"foreignKey:ModelID;constraint:OnDelete:CASCADE"`
}

// ModelRevision archives the document a save replaced
type ModelRevision struct {
	RevisionID      uint64 `gorm:"primaryKey;autoIncrement"`
	ModelID         uint64 `gorm:"index;not null"`
	DocumentVersion uint64 `gorm:"not null"`
	Document        DocumentJSON
	CreatedAt       time.Time
}

// TableName overrides the table name for ModelDocument
func (ModelDocument) TableName() string {
	return "model_documents"
}

// TableName overrides the table name for ModelRevision
func (ModelRevision) TableName() string {
	return "model_revisions"
}
