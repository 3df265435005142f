package content

import (
	"context"

	"github.com/harbourhotels/hotel-site/internal/db/models"
)

// SectionSource reads the active sections of a page ordered by display order.
type SectionSource interface {
	ActiveSections(ctx context.Context, pageName string) ([]models.ContentSection, error)
}

// SettingSource reads every stored site setting.
type SettingSource interface {
	AllSettings(ctx context.Context) ([]models.SiteSetting, error)
}
