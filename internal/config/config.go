package config

import (
	"log"
	"os"
	"strconv"
)

const (
	defaultDBPath      = "./taller.db"
	defaultPort        = "8080"
	defaultMaxCapacity = 12_000_000
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env           string
	DBPath        string
	Port          string
	SessionSecret string
	// SupervisorKey authorizes capacity overrides. Empty disables overrides.
	SupervisorKey string
	// PlantMaxCapacity is the CLP value of work the plant can hold in
	// production at once.
	PlantMaxCapacity int64
	// DraftAPIURL/DraftAPIKey configure the external quote-draft service.
	// An empty URL disables the draft endpoint.
	DraftAPIURL string
	DraftAPIKey string
}

// IsDev reports whether the process runs in local development mode.
func (c Config) IsDev() bool {
	return c.Env != "production"
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Best-effort: load local dev environment variables.
	// We don't fail if the file is missing; production should use real env injection.
	_ = loadDotEnv(".env")

	cfg := Config{
		Env:           os.Getenv("APP_ENV"),
		DBPath:        os.Getenv("DB_PATH"),
		Port:          os.Getenv("PORT"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		SupervisorKey: os.Getenv("SUPERVISOR_KEY"),
		DraftAPIURL:   os.Getenv("DRAFT_API_URL"),
		DraftAPIKey:   os.Getenv("DRAFT_API_KEY"),
	}

	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}

	cfg.PlantMaxCapacity = defaultMaxCapacity
	if raw := os.Getenv("PLANT_MAX_CAPACITY"); raw != "" {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || value <= 0 {
			log.Printf("warning: PLANT_MAX_CAPACITY %q is not a positive integer, using default", raw)
		} else {
			cfg.PlantMaxCapacity = value
		}
	}

	if cfg.SessionSecret == "" {
		log.Print("warning: SESSION_SECRET is not set")
	}
	if cfg.SupervisorKey == "" {
		log.Print("warning: SUPERVISOR_KEY is not set; capacity overrides are disabled")
	}

	return cfg
}
