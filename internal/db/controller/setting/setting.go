// Package setting provides CRUD operations for the global site settings.
package setting

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/harbourhotels/hotel-site/internal/db/models"
)

const (
	keyQueryPattern = "setting_key = ?"
)

var (
	// ErrSettingNotFound is returned when a setting is not found.
	ErrSettingNotFound = errors.New("setting not found")
	// ErrSettingKeyEmpty is returned when attempting to create/update a setting with an empty key.
	ErrSettingKeyEmpty = errors.New("setting key cannot be empty")
	// ErrSettingAlreadyExists is returned when attempting to create a setting that already exists.
	ErrSettingAlreadyExists = errors.New("setting already exists")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSettingNotFound
	}

	return err
}

// Get retrieves a setting by its key.
func Get(db *gorm.DB, key string) (*models.SiteSetting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if key == "" {
		return nil, ErrSettingKeyEmpty
	}

	var setting models.SiteSetting
	if err := db.Where(keyQueryPattern, key).First(&setting).Error; err != nil {
		return nil, notFound(err)
	}

	return &setting, nil
}

// GetByID retrieves a setting by its ID.
func GetByID(db *gorm.DB, id uint64) (*models.SiteSetting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var setting models.SiteSetting
	if err := db.First(&setting, id).Error; err != nil {
		return nil, notFound(err)
	}

	return &setting, nil
}

// GetAll retrieves all settings ordered by key.
func GetAll(db *gorm.DB) ([]models.SiteSetting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	settings := []models.SiteSetting{}
	if err := db.Order("setting_key").Find(&settings).Error; err != nil {
		return nil, err
	}

	return settings, nil
}

// Create creates a new setting in the database.
func Create(db *gorm.DB, key, value string, typ models.SettingType) (*models.SiteSetting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if key == "" {
		return nil, ErrSettingKeyEmpty
	}

	var existing models.SiteSetting

	err := db.Where(keyQueryPattern, key).First(&existing).Error
	if err == nil {
		return nil, ErrSettingAlreadyExists
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if typ == "" {
		typ = models.SettingTypeText
	}

	setting := &models.SiteSetting{
		SettingKey:   key,
		SettingValue: value,
		SettingType:  typ,
	}

	if err = db.Create(setting).Error; err != nil {
		return nil, err
	}

	return setting, nil
}

// Set creates or updates a setting by key. The write is a single upsert on the unique key,
// so concurrent writers can not produce duplicate rows.
func Set(db *gorm.DB, key, value string, typ models.SettingType) (*models.SiteSetting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if key == "" {
		return nil, ErrSettingKeyEmpty
	}

	if typ == "" {
		typ = models.SettingTypeText
	}

	setting := &models.SiteSetting{
		SettingKey:   key,
		SettingValue: value,
		SettingType:  typ,
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"setting_value", "setting_type", "updated_at"}),
	}).Create(setting).Error
	if err != nil {
		return nil, err
	}

	return Get(db, key)
}

// Update updates the value of an existing setting by ID.
func Update(db *gorm.DB, id uint64, value string) (*models.SiteSetting, error) {
	setting, err := GetByID(db, id)
	if err != nil {
		return nil, err
	}

	setting.SettingValue = value
	if err = db.Save(setting).Error; err != nil {
		return nil, err
	}

	return setting, nil
}

// UpdateByName updates the value of an existing setting by key.
func UpdateByName(db *gorm.DB, key, value string) (*models.SiteSetting, error) {
	setting, err := Get(db, key)
	if err != nil {
		return nil, err
	}

	setting.SettingValue = value
	if err = db.Save(setting).Error; err != nil {
		return nil, err
	}

	return setting, nil
}

// Delete deletes a setting by ID.
func Delete(db *gorm.DB, id uint64) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Delete(&models.SiteSetting{}, id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrSettingNotFound
	}

	return nil
}

// DeleteByName deletes a setting by key.
func DeleteByName(db *gorm.DB, key string) error {
	if db == nil {
		return ErrDBNil
	}

	if key == "" {
		return ErrSettingKeyEmpty
	}

	result := db.Where(keyQueryPattern, key).Delete(&models.SiteSetting{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrSettingNotFound
	}

	return nil
}

// LoadJSON decodes the JSON document stored under key into v.
func LoadJSON(db *gorm.DB, key string, v any) error {
	s, err := Get(db, key)
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(s.SettingValue), v)
}

// SaveJSON stores v as a JSON document under key.
func SaveJSON(db *gorm.DB, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	_, err = Set(db, key, string(data), models.SettingTypeJSON)

	return err
}

// Repository reads settings for the site settings resolver.
type Repository struct {
	DB *gorm.DB
}

// AllSettings returns every stored setting.
func (r Repository) AllSettings(ctx context.Context) ([]models.SiteSetting, error) {
	if r.DB == nil {
		return nil, ErrDBNil
	}

	return GetAll(r.DB.WithContext(ctx))
}
