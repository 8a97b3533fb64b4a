package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"bangalorelife-scraper/affiliate"
)

// ErrMissingEnv is wrapped by the error returned when required variables are unset.
var ErrMissingEnv = errors.New("missing required environment variables")

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	DryRun           bool

	Affiliate affiliate.Config

	City     string
	Currency string

	PacingMs          int
	RequestTimeoutSec int
	MaxRetries        int
	ScrollSteps       int
	RetentionDays     int

	PlacesAPIKey string

	CSVOutputPath  string
	ChromeBin      string
	LogLevel       string
	LogFile        string
	PushgatewayURL string
}

// LoadScraper loads configuration for the listing scrapers. The storage
// password and the affiliate publisher id are required.
func LoadScraper() (*Config, error) {
	cfg := load()
	return cfg, cfg.require(
		req{"POSTGRES_PASSWORD", cfg.PostgresPassword, !cfg.DryRun},
		req{"AFFILIATE_PUBLISHER_ID", cfg.Affiliate.PublisherID, true},
	)
}

// LoadPlaces loads configuration for the venue populator. The storage
// password and the Places API key are required.
func LoadPlaces() (*Config, error) {
	cfg := load()
	return cfg, cfg.require(
		req{"POSTGRES_PASSWORD", cfg.PostgresPassword, !cfg.DryRun},
		req{"GOOGLE_PLACES_API_KEY", cfg.PlacesAPIKey, true},
	)
}

func load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "bangalorelife"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		DryRun:           getEnvBool("DRY_RUN", false),

		Affiliate: affiliate.Config{
			BaseURL:         getEnv("AFFILIATE_BASE_URL", "https://linksredirect.com/"),
			PublisherID:     getEnv("AFFILIATE_PUBLISHER_ID", ""),
			TrafficSourceID: getEnv("AFFILIATE_SOURCE_ID", "bangalorelife"),
			CampaignType:    getEnv("AFFILIATE_CAMPAIGN", "cps"),
		},

		City:     getEnv("SITE_CITY", "Bangalore"),
		Currency: getEnv("SITE_CURRENCY", "INR"),

		PacingMs:          getEnvInt("PACING_MS", 1500),
		RequestTimeoutSec: getEnvInt("REQUEST_TIMEOUT_SEC", 45),
		MaxRetries:        getEnvInt("MAX_RETRIES", 2),
		ScrollSteps:       getEnvInt("SCROLL_STEPS", 4),
		RetentionDays:     getEnvInt("RETENTION_DAYS", 30),

		PlacesAPIKey: getEnv("GOOGLE_PLACES_API_KEY", ""),

		CSVOutputPath:  getEnv("CSV_OUTPUT_PATH", ""),
		ChromeBin:      getEnv("CHROME_BIN", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFile:        getEnv("LOG_FILE", ""),
		PushgatewayURL: getEnv("PUSHGATEWAY_URL", ""),
	}
}

type req struct {
	key     string
	value   string
	enabled bool
}

func (c *Config) require(reqs ...req) error {
	var missing []string
	for _, r := range reqs {
		if r.enabled && strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// Pacing returns the fixed delay enforced between consecutive fetches.
func (c *Config) Pacing() time.Duration {
	return time.Duration(c.PacingMs) * time.Millisecond
}

// RequestTimeout returns the per-request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// Retention returns the age past start date after which events are cleaned up.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
