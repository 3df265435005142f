package daemon

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/harbourhotels/hotel-site/internal/auth"
	"github.com/harbourhotels/hotel-site/internal/config"
	"github.com/harbourhotels/hotel-site/internal/content"
	"github.com/harbourhotels/hotel-site/internal/db/controller/section"
	"github.com/harbourhotels/hotel-site/internal/db/controller/setting"
	"github.com/harbourhotels/hotel-site/internal/db/models"
	"github.com/harbourhotels/hotel-site/internal/uniuri"
)

// BootstrapUser is the name of the admin account created on an empty database.
const BootstrapUser = "admin"

type seedSection struct {
	page, key, title, contentType, data string
	order                               int
}

// sampleSections gives a fresh install a complete site to edit.
var sampleSections = []seedSection{ //nolint:gochecknoglobals
	{"home", "hero", "Hero banner", "hero", `{"title":"Welcome to Harbour Hotels","subtitle":"Boutique stays by the sea","cta_label":"Book your stay","cta_url":"/booking"}`, 0},
	{"home", "intro", "Introduction", "prose", `{"title":"Your harbour home","body":"Three hotels, one promise: **quiet rooms**, honest food and a view of the water."}`, 10},
	{"home", "highlights", "Highlights", "cards", `{"title":"Why guests come back","items":[{"icon":"bed","title":"Restful rooms","text":"Hand made beds and blackout curtains."},{"icon":"restaurant","title":"Local kitchen","text":"Seasonal menus from nearby farms."},{"icon":"spa","title":"Spa","text":"Sauna and treatments with a sea view."}]}`, 20},
	{"about", "story", "Our story", "prose", `{"title":"Our story","body":"Family run since 1987."}`, 10},
	{"facilities", "list", "Facilities", "cards", `{"items":[{"icon":"wifi","title":"Free Wi-Fi"},{"icon":"parking","title":"Parking"},{"icon":"gym","title":"Fitness room"},{"icon":"pet","title":"Pets welcome"}]}`, 10},
	{"locations", "list", "Hotels", "locations", `{"items":[{"name":"Harbour Hotel Old Town","city":"Old Town","address":"1 Quay Street"}]}`, 10},
	{"faq", "questions", "Questions", "faq", `{"items":[{"question":"When is check-in?","answer":"Check-in starts at **3 pm**, check-out is until 11 am."}]}`, 10},
	{"policies", "policies", "Policies", "policies", `{"items":[{"title":"Cancellation","body":"Free cancellation up to 48 hours before arrival."}]}`, 10},
}

// Seed prepares an empty database: roles and permissions, the bootstrap admin,
// the site name and sample content. Existing data is never overwritten.
func Seed(cfg *config.Config, db *gorm.DB) error {
	if err := auth.NewService(db).EnsureRoles(); err != nil {
		return err
	}

	if err := seedAdmin(db); err != nil {
		return err
	}

	if err := seedSettings(cfg, db); err != nil {
		return err
	}

	return seedSections(db)
}

func seedAdmin(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	role, err := auth.NewService(db).RoleByName(models.RoleAdmin)
	if err != nil {
		return err
	}

	password := uniuri.New()

	if _, err := auth.NewLocalProvider(db).CreateUser(BootstrapUser, "admin@localhost", password, "", "", role.ID); err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	log.Warn().
		Str("username", BootstrapUser).
		Str("password", password).
		Msg("created bootstrap admin account, change the password after the first login")

	return nil
}

func seedSettings(cfg *config.Config, db *gorm.DB) error {
	if cfg.Title == "" {
		return nil
	}

	_, err := setting.Create(db, content.KeySiteName, cfg.Title, models.SettingTypeText)
	if errors.Is(err, setting.ErrSettingAlreadyExists) {
		return nil
	}

	return err
}

func seedSections(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.ContentSection{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	for _, s := range sampleSections {
		_, err := section.Create(db, section.Input{
			PageName:     s.page,
			SectionKey:   s.key,
			SectionTitle: s.title,
			ContentType:  s.contentType,
			Data:         []byte(s.data),
			DisplayOrder: s.order,
			IsActive:     true,
		})
		if err != nil {
			return fmt.Errorf("failed to seed section %s/%s: %w", s.page, s.key, err)
		}
	}

	log.Info().Int("sections", len(sampleSections)).Msg("seeded sample content")

	return nil
}
