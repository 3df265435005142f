package auth

import (
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/harbourhotels/hotel-site/internal/db/models"
)

// Service provides authorization checks and role management.
type Service struct {
	db *gorm.DB
}

// NewService creates a new auth service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// HasPermission checks if the user's role grants a specific permission.
func (s *Service) HasPermission(userID uint64, permission string) (bool, error) {
	var count int64

	err := s.db.Table("permissions").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN users ON users.role_id = role_permissions.role_id").
		Where("users.id = ? AND users.active = ? AND permissions.name = ?", userID, true, permission).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check role permission: %w", err)
	}

	return count > 0, nil
}

// GetUserPermissions retrieves the sorted permission names of the user's role.
func (s *Service) GetUserPermissions(userID uint64) ([]string, error) {
	var permissions []string

	err := s.db.Table("permissions").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN users ON users.role_id = role_permissions.role_id").
		Where("users.id = ? AND users.active = ?", userID, true).
		Distinct().
		Pluck("permissions.name", &permissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user permissions: %w", err)
	}

	sort.Strings(permissions)

	return permissions, nil
}

// RoleByName returns the role with the given name.
func (s *Service) RoleByName(name string) (*models.Role, error) {
	var role models.Role

	err := s.db.Where(models.WhereNameIs, name).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRoleNotFound, name)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query role: %w", err)
	}

	return &role, nil
}

// Roles lists all roles ordered by name.
func (s *Service) Roles() ([]models.Role, error) {
	var roles []models.Role

	if err := s.db.Order("name ASC").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	return roles, nil
}

// AssignRoleToUser assigns a role to a user.
func (s *Service) AssignRoleToUser(userID uint64, roleID uint) error {
	return s.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("role_id", roleID).Error
}

// EnsureRoles creates the permissions and the built-in admin and editor roles
// when missing and (re)grants their permission sets. It is safe to call on
// every start.
func (s *Service) EnsureRoles() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		byName := make(map[string]uint)

		for _, def := range Permissions() {
			perm := models.Permission{
				Name:        def.Name,
				Resource:    "admin",
				Action:      def.Name[len("admin."):],
				Description: def.Description,
			}

			if err := tx.Where(models.WhereNameIs, def.Name).FirstOrCreate(&perm).Error; err != nil {
				return fmt.Errorf("failed to ensure permission %s: %w", def.Name, err)
			}

			byName[def.Name] = perm.ID
		}

		grants := map[string][]string{
			models.RoleAdmin:  permissionNames(),
			models.RoleEditor: EditorPermissions(),
		}

		descriptions := map[string]string{
			models.RoleAdmin:  "Full access including user management",
			models.RoleEditor: "Edits content, settings and media",
		}

		for roleName, perms := range grants {
			role := models.Role{Name: roleName, Description: descriptions[roleName], IsSystem: true}

			if err := tx.Where(models.WhereNameIs, roleName).FirstOrCreate(&role).Error; err != nil {
				return fmt.Errorf("failed to ensure role %s: %w", roleName, err)
			}

			for _, p := range perms {
				rp := models.RolePermission{RoleID: role.ID, PermissionID: byName[p]}

				if err := tx.Where("role_id = ? AND permission_id = ?", rp.RoleID, rp.PermissionID).
					FirstOrCreate(&rp).Error; err != nil {
					return fmt.Errorf("failed to grant %s to %s: %w", p, roleName, err)
				}
			}
		}

		return nil
	})
}

func permissionNames() []string {
	defs := Permissions()
	names := make([]string, 0, len(defs))

	for _, d := range defs {
		names = append(names, d.Name)
	}

	return names
}
