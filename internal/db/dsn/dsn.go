// Package dsn builds database connection strings and gorm dialectors from the configuration.
package dsn

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/glebarez/sqlite"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/harbourhotels/hotel-site/internal/config"
)

const defaultSQLitePath = "hotel-site.db"

// Create builds the Data Source Name for the configured engine.
// SQLite gets a file path, the network engines a driver specific DSN.
func Create(cfg *config.Config) string {
	db := cfg.DB

	switch db.GormEngine {
	case config.EnginePostgres:
		return postgres(db)
	case config.EngineSQLite:
		if db.Path == "" {
			return defaultSQLitePath
		}

		return db.Path
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			db.User,
			db.Password,
			db.Host,
			db.Port,
			db.Name,
			db.Extras,
		)
	}
}

// postgres renders a URL style DSN, Extras are appended as query parameters.
func postgres(db config.DB) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(db.User, db.Password),
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   "/" + db.Name,
	}

	extras := strings.TrimPrefix(db.Extras, "?")
	if extras == "" {
		extras = "sslmode=disable"
	}

	u.RawQuery = extras

	return u.String()
}

// Dialector returns the gorm dialector matching the configured engine.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL, "":
		return gormmysql.Open(Create(cfg)), nil
	case config.EnginePostgres:
		return gormpostgres.Open(Create(cfg)), nil
	case config.EngineSQLite:
		return sqlite.Open(Create(cfg)), nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownGormEngine, cfg.DB.GormEngine)
	}
}
