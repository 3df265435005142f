package models

import "time"

// Permission grants access to one area of the admin panel, e.g. "admin.sections".
type Permission struct {
	ID uint `gorm:"primaryKey"`
	// Name is "<resource>.<action>".
	Name        string `gorm:"unique;size:100;not null"`
	Resource    string `gorm:"size:100;not null"`
	Action      string `gorm:"size:50;not null"`
	Description string `gorm:"size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName overrides GORM's default table naming.
func (Permission) TableName() string {
	return "permissions"
}

// RolePermission links a role to one of its permissions. Deleting either side
// removes the link.
type RolePermission struct {
	RoleID       uint       `gorm:"primaryKey;column:role_id"`
	PermissionID uint       `gorm:"primaryKey;column:permission_id"`
	Role         Role       `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE"`
	Permission   Permission `gorm:"foreignKey:PermissionID;constraint:OnDelete:CASCADE"`
}

// TableName overrides GORM's default table naming.
func (RolePermission) TableName() string {
	return "role_permissions"
}
