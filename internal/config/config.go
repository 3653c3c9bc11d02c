package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	// DataDir holds the four input CSV datasets; OutputDir receives the
	// summary and detail artifacts of a run.
	DataDir   string
	OutputDir string

	// StrategyConfigPath optionally points at a strategy.yml overriding the
	// coded simulator defaults.
	StrategyConfigPath string

	DBType     string
	DBPath     string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string
}

const (
	DBTypeSQLite   = "sqlite"
	DBTypePostgres = "postgres"
	DBTypeNone     = "none"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:            getenv("APP_SERVICE", "strategia"),
		AppVersion:         getenv("APP_VERSION", "0.1.0"),
		Environment:        getenv("ENVIRONMENT", "development"),
		DataDir:            getenv("DATA_DIR", "data/processed"),
		OutputDir:          getenv("OUTPUT_DIR", "data/ml_results"),
		StrategyConfigPath: getenv("STRATEGY_CONFIG_PATH", ""),
		DBType:             normalizeDBType(getenv("DATABASE_TYPE", DBTypeSQLite)),
		DBPath:             getenv("DATABASE_PATH", "strategia.db"),
		DBHost:             getenv("DATABASE_HOST", "localhost"),
		DBPort:             getenv("DATABASE_PORT", "5432"),
		DBName:             getenv("DATABASE_NAME", "postgres"),
		DBUser:             getenv("DATABASE_USER", "postgres"),
		DBPassword:         getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:          getenv("DATABASE_SSLMODE", "disable"),
	}
}

// PersistenceEnabled reports whether run results should be stored.
func (c Config) PersistenceEnabled() bool {
	return c.DBType != DBTypeNone
}

func normalizeDBType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case DBTypePostgres:
		return DBTypePostgres
	case DBTypeNone, "":
		return DBTypeNone
	default:
		return DBTypeSQLite
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
