package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Simplici0/crewpay/internal/logger"
)

const (
	defaultDBPath       = "./dev.db"
	defaultPort         = "8080"
	defaultEnv          = "development"
	defaultProfilesFile = "./profiles.json"
	defaultLogLevel     = "info"
)

// Store drivers selectable with STORE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env       string
	Port      string
	LogLevel  string
	LogFormat string

	StoreDriver        string
	DBPath             string
	ProfilesFile       string
	ProfilesPassphrase string
	DatabaseURL        string

	SeedProfileName string
}

// Load reads environment variables and returns a populated Config.
func Load() (Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit dotenv path. Variables already present in the environment
// win over the file, and a missing file is not an error.
func LoadFrom(dotenvPath string) (Config, error) {
	if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", dotenvPath, err)
	}

	cfg := Config{
		Env:                os.Getenv("APP_ENV"),
		Port:               os.Getenv("PORT"),
		LogLevel:           os.Getenv("LOG_LEVEL"),
		LogFormat:          strings.ToLower(os.Getenv("LOG_FORMAT")),
		StoreDriver:        strings.ToLower(strings.TrimSpace(os.Getenv("STORE_DRIVER"))),
		DBPath:             os.Getenv("DB_PATH"),
		ProfilesFile:       os.Getenv("PROFILES_FILE"),
		ProfilesPassphrase: os.Getenv("PROFILES_PASSPHRASE"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		SeedProfileName:    strings.TrimSpace(os.Getenv("SEED_PROFILE_NAME")),
	}

	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if cfg.StoreDriver == "" {
		cfg.StoreDriver = DriverSQLite
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.ProfilesFile == "" {
		cfg.ProfilesFile = defaultProfilesFile
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	if cfg.StoreDriver == DriverFile && cfg.ProfilesPassphrase == "" {
		logger.Log.Debug().Str("file", cfg.ProfilesFile).Msg("PROFILES_PASSPHRASE is not set; profiles file is stored unencrypted")
	}

	return cfg, nil
}

// Validate checks that the selected store driver is usable.
func (c Config) Validate() error {
	var errs []string

	switch c.StoreDriver {
	case DriverSQLite, DriverFile, DriverMemory:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("STORE_DRIVER %q is not one of sqlite, file, postgres, memory", c.StoreDriver))
	}

	if c.LogFormat != "" && c.LogFormat != "console" && c.LogFormat != "json" {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT %q is not one of console, json", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// IsDev reports whether the app runs in the development environment.
func (c Config) IsDev() bool {
	return c.Env == defaultEnv
}
