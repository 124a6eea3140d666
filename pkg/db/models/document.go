package models

import "time"

// Document is one row of the generic document table backing the docstore.
type Document struct {
	Collection string    `gorm:"type:text;primaryKey"`
	DocKey     string    `gorm:"column:doc_key;type:text;primaryKey"`
	Body       string    `gorm:"type:text;not null"`
	Version    int64     `gorm:"not null;default:1"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (Document) TableName() string {
	return "documents"
}
