package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/harbourhotels/hotel-site/internal/db/models"
)

// LocalProvider handles local database authentication.
type LocalProvider struct {
	db *gorm.DB
}

const (
	whereIDAndAuthSource = "id = ? AND auth_source = ?"

	whereID = "id = ?"
)

// NewLocalProvider creates a new local authentication provider.
func NewLocalProvider(db *gorm.DB) *LocalProvider {
	return &LocalProvider{
		db: db,
	}
}

// Authenticate checks username and password against the local database. When
// the user enrolled TOTP, totpCode must be a valid current code: an empty code
// yields ErrTOTPRequired so the login form can ask for it.
func (p *LocalProvider) Authenticate(username, password, totpCode string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrEmptyCredentials
	}

	var user models.User

	err := p.db.Where("username = ? AND auth_source = ?", username, models.AuthSourceLocal).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if !user.Active {
		return nil, ErrUserAccountDisabled
	}

	if !user.VerifyPassword(password) {
		return nil, ErrInvalidPassword
	}

	if user.HasTOTP() {
		code := strings.TrimSpace(totpCode)
		if code == "" {
			return nil, ErrTOTPRequired
		}

		if !ValidateTOTP(code, user.TOTPSecret) {
			return nil, ErrInvalidTOTP
		}
	}

	return &user, nil
}

// CreateUser creates a new local user.
func (p *LocalProvider) CreateUser(
	username, email, password, firstName, lastName string,
	roleID uint,
) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrEmptyCredentials
	}

	var existingUser models.User

	err := p.db.Where("username = ? OR email = ?", username, email).First(&existingUser).Error
	if err == nil {
		return nil, ErrUserNameOrEmailExists
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := models.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Active:     true,
		Username:   username,
		Email:      email,
		Password:   hash,
		FirstName:  firstName,
		LastName:   lastName,
		RoleID:     roleID,
		AuthSource: models.AuthSourceLocal,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if err := p.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// UpdateUser updates profile, role and active flag of any user.
func (p *LocalProvider) UpdateUser(userID uint64, email, firstName, lastName string, roleID uint, active bool) error {
	updates := map[string]interface{}{
		"email":      email,
		"first_name": firstName,
		"last_name":  lastName,
		"role_id":    roleID,
		"active":     active,
		"updated_at": time.Now(),
	}

	res := p.db.Model(&models.User{}).Where(whereID, userID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update user: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// ResetPassword sets a new password for a local user (admin function).
func (p *LocalProvider) ResetPassword(userID uint64, newPassword string) error {
	if newPassword == "" {
		return ErrEmptyCredentials
	}

	hash, err := models.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return p.db.Model(&models.User{}).
		Where(whereIDAndAuthSource, userID, models.AuthSourceLocal).
		Update("password", hash).Error
}

// DeleteUser deletes a user. Administrators and the acting user are protected.
func (p *LocalProvider) DeleteUser(actingUserID, userID uint64) error {
	if actingUserID == userID {
		return ErrProtectedUser
	}

	user, err := p.GetUserByID(userID)
	if err != nil {
		return err
	}

	if user.Role.Name == models.RoleAdmin {
		return ErrProtectedUser
	}

	return p.db.Delete(&models.User{}, userID).Error
}

// GetUserByID retrieves a user with its role.
func (p *LocalProvider) GetUserByID(userID uint64) (*models.User, error) {
	var user models.User

	err := p.db.Preload("Role").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (p *LocalProvider) GetUserByUsername(username string) (*models.User, error) {
	var user models.User

	err := p.db.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// ListUsers lists all users with their roles ordered by username.
func (p *LocalProvider) ListUsers() ([]models.User, error) {
	var users []models.User

	if err := p.db.Preload("Role").Order("username ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// EnableTOTP stores secret for the user after checking code against it.
func (p *LocalProvider) EnableTOTP(userID uint64, secret, code string) error {
	if !ValidateTOTP(strings.TrimSpace(code), secret) {
		return ErrInvalidTOTP
	}

	return p.db.Model(&models.User{}).Where(whereID, userID).Update("totp_secret", secret).Error
}

// DisableTOTP removes the second factor of the user.
func (p *LocalProvider) DisableTOTP(userID uint64) error {
	return p.db.Model(&models.User{}).Where(whereID, userID).Update("totp_secret", "").Error
}
