package models

import "time"

const (
	// WhereNameIs selects a row by its name column.
	WhereNameIs = "name = ?"

	// RoleAdmin holds every permission and manages users.
	RoleAdmin = "admin"
	// RoleEditor edits page content, settings and media.
	RoleEditor = "editor"
)

// Role groups permissions. The built-in roles are flagged IsSystem and
// cannot be removed.
type Role struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"unique;size:100;not null"`
	Description string `gorm:"size:255"`
	IsSystem    bool   `gorm:"default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Role) TableName() string {
	return "roles"
}
