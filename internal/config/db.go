package config

// DB holds the database configuration settings.
type DB struct {
	Extras     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	GormEngine string // mysql, postgres or sqlite
	Path       string // sqlite database file
}

const (
	// EngineMySQL selects the MySQL/MariaDB driver.
	EngineMySQL = "mysql"
	// EnginePostgres selects the PostgreSQL driver.
	EnginePostgres = "postgres"
	// EngineSQLite selects the embedded SQLite driver (development and tests).
	EngineSQLite = "sqlite"
)
