package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const envDevelopment = "development"

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env           string        `env:"ENVIRONMENT" env-default:"development" env-description:"development or production"`
	Port          string        `env:"PORT" env-default:"8080"`
	DBPath        string        `env:"DB_PATH" env-default:"./dev.db"`
	AdminEmail    string        `env:"ADMIN_EMAIL"`
	AdminPassword string        `env:"ADMIN_PASSWORD"`
	SessionSecret string        `env:"SESSION_SECRET"`
	LogLevel      string        `env:"LOG_LEVEL" env-default:"info"`
	LogFormat     string        `env:"LOG_FORMAT" env-default:"auto" env-description:"json, console or auto"`
	AutosaveDelay time.Duration `env:"AUTOSAVE_DELAY" env-default:"1s"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit dotenv path. Variables already present in the
// environment win over the file; a missing file is not an error.
func LoadFrom(dotenvPath string) (Config, error) {
	if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", dotenvPath, err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	if cfg.AutosaveDelay < 0 {
		return Config{}, fmt.Errorf("AUTOSAVE_DELAY must not be negative, got %s", cfg.AutosaveDelay)
	}
	return cfg, nil
}

// IsDev reports whether the server runs in development mode.
func (c Config) IsDev() bool {
	return c.Env == envDevelopment
}

// Warnings lists settings that are missing but not fatal.
func (c Config) Warnings() []string {
	var out []string
	if c.AdminEmail == "" {
		out = append(out, "ADMIN_EMAIL is not set")
	}
	if c.AdminPassword == "" {
		out = append(out, "ADMIN_PASSWORD is not set")
	}
	if c.SessionSecret == "" {
		out = append(out, "SESSION_SECRET is not set")
	}
	return out
}

// Usage describes the environment variables the configuration reads.
func Usage() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return err.Error()
	}
	return text
}
