package models

import (
	"time"

	"gorm.io/datatypes"
)

// ContentSection is one named, orderable content block of a public page.
// The pair (PageName, SectionKey) identifies the block; Data carries the
// render payload whose shape depends on the section key.
type ContentSection struct {
	// ID is the unique identifier for the section.
	ID uint64 `gorm:"primaryKey"                          json:"id"`
	// PageName is the page the section belongs to (e.g. "home").
	PageName string `gorm:"size:100;not null;index:idx_page_order,priority:1" json:"page_name"`
	// SectionKey names the region of the page (e.g. "hero").
	SectionKey string `gorm:"size:100;not null"                json:"section_key"`
	// SectionTitle is an optional label shown in the admin panel only.
	SectionTitle string `gorm:"size:255"                       json:"section_title"`
	// ContentType is a free-form tag describing the payload, it is not enforced against Data.
	ContentType string `gorm:"size:50"                          json:"content_type"`
	// Data is the structured render payload.
	Data datatypes.JSON `json:"data"`
	// DisplayOrder sorts sections of a page ascending.
	DisplayOrder int `gorm:"not null;default:0;index:idx_page_order,priority:2" json:"display_order"`
	// IsActive gates the section on the public site.
	IsActive bool `gorm:"not null"                                json:"is_active"`
	// CreatedAt is managed by GORM.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is managed by GORM.
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides GORM's default table naming.
func (ContentSection) TableName() string {
	return "content_sections"
}
