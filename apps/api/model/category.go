package model

import "time"

// Category forms a tree through ParentID. Children are found by querying
// for rows whose parent is this category rather than holding an owned edge
// in both directions.
type Category struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Slug        string `gorm:"type:varchar(120);uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	ParentID    *int64 `gorm:"index" json:"parent_id,omitempty"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}
