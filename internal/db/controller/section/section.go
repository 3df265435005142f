// Package section provides persistence operations for page content sections.
package section

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/harbourhotels/hotel-site/internal/db/models"
)

const (
	orderClause       = "display_order ASC, id ASC"
	pageQueryPattern  = "page_name = ?"
	activeDupePattern = "page_name = ? AND section_key = ? AND is_active = ? AND id <> ?"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrSectionNotFound is returned when no section has the requested id.
	ErrSectionNotFound = errors.New("section not found")
	// ErrPageNameEmpty is returned when a section is written without a page name.
	ErrPageNameEmpty = errors.New("page name cannot be empty")
	// ErrSectionKeyEmpty is returned when a section is written without a section key.
	ErrSectionKeyEmpty = errors.New("section key cannot be empty")
	// ErrInvalidData is returned when the section data is not a JSON document.
	ErrInvalidData = errors.New("section data must be a JSON document")
	// ErrDuplicateSectionKey is returned when a page would get a second active section with the same key.
	ErrDuplicateSectionKey = errors.New("an active section with this key already exists on the page")
)

// Input carries the editable fields of a section.
type Input struct {
	PageName     string
	SectionKey   string
	SectionTitle string
	ContentType  string
	Data         []byte
	DisplayOrder int
	IsActive     bool
}

// PageSummary counts the sections stored for one page.
type PageSummary struct {
	PageName string
	Total    int64
	Active   int64
}

func (in *Input) normalize() error {
	in.PageName = strings.ToLower(strings.TrimSpace(in.PageName))
	in.SectionKey = strings.TrimSpace(in.SectionKey)
	in.SectionTitle = strings.TrimSpace(in.SectionTitle)
	in.ContentType = strings.TrimSpace(in.ContentType)

	if in.PageName == "" {
		return ErrPageNameEmpty
	}

	if in.SectionKey == "" {
		return ErrSectionKeyEmpty
	}

	data := strings.TrimSpace(string(in.Data))
	if data == "" {
		data = "{}"
	}

	if !json.Valid([]byte(data)) {
		return ErrInvalidData
	}

	in.Data = []byte(data)

	return nil
}

func (in *Input) apply(s *models.ContentSection) {
	s.PageName = in.PageName
	s.SectionKey = in.SectionKey
	s.SectionTitle = in.SectionTitle
	s.ContentType = in.ContentType
	s.Data = datatypes.JSON(in.Data)
	s.DisplayOrder = in.DisplayOrder
	s.IsActive = in.IsActive
}

// checkDuplicate rejects a second active (page, key) pair. exceptID excludes the row being updated.
func checkDuplicate(db *gorm.DB, page, key string, exceptID uint64) error {
	var count int64
	if err := db.Model(&models.ContentSection{}).
		Where(activeDupePattern, page, key, true, exceptID).
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return ErrDuplicateSectionKey
	}

	return nil
}

// Get retrieves a section by id.
func Get(db *gorm.DB, id uint64) (*models.ContentSection, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var s models.ContentSection
	if err := db.First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSectionNotFound
		}

		return nil, err
	}

	return &s, nil
}

// ListByPage returns every section of a page, inactive ones included, in display order.
func ListByPage(db *gorm.DB, page string) ([]models.ContentSection, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	sections := []models.ContentSection{}
	if err := db.Where(pageQueryPattern, page).Order(orderClause).Find(&sections).Error; err != nil {
		return nil, err
	}

	return sections, nil
}

// Pages summarises the stored sections per page name.
func Pages(db *gorm.DB) ([]PageSummary, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	summaries := []PageSummary{}

	err := db.Model(&models.ContentSection{}).
		Select("page_name, COUNT(*) AS total, SUM(CASE WHEN is_active THEN 1 ELSE 0 END) AS active").
		Group("page_name").
		Order("page_name").
		Scan(&summaries).Error
	if err != nil {
		return nil, err
	}

	return summaries, nil
}

// Create stores a new section.
func Create(db *gorm.DB, in Input) (*models.ContentSection, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if err := in.normalize(); err != nil {
		return nil, err
	}

	var s models.ContentSection

	err := db.Transaction(func(tx *gorm.DB) error {
		if in.IsActive {
			if err := checkDuplicate(tx, in.PageName, in.SectionKey, 0); err != nil {
				return err
			}
		}

		in.apply(&s)

		return tx.Create(&s).Error
	})
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// Update replaces the editable fields of a section.
// It returns the updated row and the page the section belonged to before the update.
func Update(db *gorm.DB, id uint64, in Input) (*models.ContentSection, string, error) {
	if db == nil {
		return nil, "", ErrDBNil
	}

	if err := in.normalize(); err != nil {
		return nil, "", err
	}

	var (
		s            models.ContentSection
		previousPage string
	)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&s, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSectionNotFound
			}

			return err
		}

		previousPage = s.PageName

		if in.IsActive {
			if err := checkDuplicate(tx, in.PageName, in.SectionKey, id); err != nil {
				return err
			}
		}

		in.apply(&s)

		return tx.Save(&s).Error
	})
	if err != nil {
		return nil, "", err
	}

	return &s, previousPage, nil
}

// SetActive toggles the visibility of a section on the public site.
func SetActive(db *gorm.DB, id uint64, active bool) (*models.ContentSection, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var s models.ContentSection

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&s, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSectionNotFound
			}

			return err
		}

		if active && !s.IsActive {
			if err := checkDuplicate(tx, s.PageName, s.SectionKey, id); err != nil {
				return err
			}
		}

		s.IsActive = active

		return tx.Model(&s).Update("is_active", active).Error
	})
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// Delete removes a section and returns the removed row.
func Delete(db *gorm.DB, id uint64) (*models.ContentSection, error) {
	s, err := Get(db, id)
	if err != nil {
		return nil, err
	}

	if err = db.Delete(&models.ContentSection{}, id).Error; err != nil {
		return nil, err
	}

	return s, nil
}

// Repository serves active sections to the public site.
type Repository struct {
	DB *gorm.DB
}

// ActiveSections returns the active sections of a page ordered by display order, then id.
func (r Repository) ActiveSections(ctx context.Context, pageName string) ([]models.ContentSection, error) {
	if r.DB == nil {
		return nil, ErrDBNil
	}

	sections := []models.ContentSection{}

	err := r.DB.WithContext(ctx).
		Where(pageQueryPattern+" AND is_active = ?", pageName, true).
		Order(orderClause).
		Find(&sections).Error
	if err != nil {
		return nil, err
	}

	return sections, nil
}
