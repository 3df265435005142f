// Package models contains database model definitions.
package models

import "time"

// SettingType tags how a setting value is meant to be read.
// The tag is informative only, values are always stored as text.
type SettingType string

const (
	// SettingTypeText is a plain text value.
	SettingTypeText SettingType = "text"
	// SettingTypeImage is an image URL or a data URI.
	SettingTypeImage SettingType = "image"
	// SettingTypeURL is a link.
	SettingTypeURL SettingType = "url"
	// SettingTypeJSON is a JSON document owned by a typed settings group.
	SettingTypeJSON SettingType = "json"
)

// SiteSetting is one named global value shared by the whole site.
type SiteSetting struct {
	ID           uint64      `gorm:"primaryKey"                 json:"id"`
	SettingKey   string      `gorm:"unique;size:100;not null"   json:"setting_key"`
	SettingValue string      `gorm:"type:text"                  json:"setting_value"`
	SettingType  SettingType `gorm:"size:20;not null;default:'text'" json:"setting_type"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// TableName overrides GORM's default table naming.
func (SiteSetting) TableName() string {
	return "site_settings"
}
