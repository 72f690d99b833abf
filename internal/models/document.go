package models

import (
	"time"

	"gorm.io/datatypes"
)

// Document is one keyed child of a store collection.
type Document struct {
	ID         uint           `gorm:"primaryKey"`
	Collection string         `gorm:"size:255;not null;uniqueIndex:idx_documents_path"`
	Key        string         `gorm:"size:255;not null;uniqueIndex:idx_documents_path"`
	Body       datatypes.JSON `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName specifies the table name for GORM.
func (Document) TableName() string {
	return "documents"
}
