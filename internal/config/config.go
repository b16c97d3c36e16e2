package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries process-wide settings resolved from the environment.
type Config struct {
	Environment string
	HTTPAddr    string
	DBPath      string

	Tracing   Tracing
	Bootstrap Bootstrap
	Auth      Auth
}

// Tracing controls the OTLP trace exporter.
type Tracing struct {
	Enabled  bool
	Endpoint string
}

// Bootstrap controls startup seeding.
type Bootstrap struct {
	SeedDemoCatalog  bool
	EnsureDefaultKey bool
}

// Auth controls the API key middleware.
type Auth struct {
	RequireAPIKey bool
}

// IsProduction reports whether the process runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads configuration from the environment. A .env file is honoured
// when present so local development matches deployed behaviour.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Environment: getenv("PROCURA_ENV", "development"),
		HTTPAddr:    getenv("PROCURA_HTTP_ADDR", ":8080"),
		DBPath:      getenv("PROCURA_DB_PATH", "procura.db"),
		Tracing: Tracing{
			Enabled:  getbool("PROCURA_TRACING_ENABLED", false),
			Endpoint: getenv("PROCURA_OTLP_ENDPOINT", "localhost:4318"),
		},
		Bootstrap: Bootstrap{
			SeedDemoCatalog:  getbool("PROCURA_SEED_DEMO_CATALOG", false),
			EnsureDefaultKey: getbool("PROCURA_ENSURE_DEFAULT_KEY", true),
		},
		Auth: Auth{
			RequireAPIKey: getbool("PROCURA_REQUIRE_API_KEY", false),
		},
	}
	return cfg
}

func getenv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getbool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
