package common

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is read once at startup from the environment (and an optional .env).
type Config struct {
	Port   string
	Domain string

	DBDriver    string // sqlite | postgres
	SQLitePath  string
	DatabaseURL string
	AnalyticsDB string

	MediaRoot     string
	SessionSecret string
	PerPage       int

	CacheDir    string
	CacheMaxAge time.Duration

	Log      string
	LogLevel string
	LogDir   string

	AdminUsername string
	AdminPassword string
}

// LoadConfig loads .env if present, reads env vars and applies defaults.
// It does not log, so it can run before the logger exists.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Port:   def(os.Getenv("PORT"), "8080"),
		Domain: strings.TrimSuffix(def(os.Getenv("DOMAIN"), "http://localhost:8080"), "/"),

		DBDriver:    strings.ToLower(def(os.Getenv("DB_DRIVER"), "sqlite")),
		SQLitePath:  def(os.Getenv("SQLITE_DB"), "pressroom.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		AnalyticsDB: os.Getenv("ANALYTICS_DB"),

		MediaRoot:     def(os.Getenv("MEDIA_ROOT"), "media"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		PerPage:       defInt(os.Getenv("PER_PAGE"), 9),

		CacheDir:    def(os.Getenv("CACHE_DIR"), "cache"),
		CacheMaxAge: defDuration(os.Getenv("CACHE_MAX_AGE"), 0),

		Log:      strings.ToLower(os.Getenv("LOG")),
		LogLevel: strings.ToLower(def(os.Getenv("LOG_LEVEL"), "info")),
		LogDir:   def(os.Getenv("LOG_DIR"), "logs"),

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	return cfg, cfg.Validate()
}

// Validate reports the first setting the server cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SessionSecret) == "" {
		return errors.New("SESSION_SECRET environment variable not set")
	}
	switch c.DBDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("SQLITE_DB must not be empty")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return errors.New("unsupported DB_DRIVER " + strconv.Quote(c.DBDriver))
	}
	if c.PerPage < 1 {
		return errors.New("PER_PAGE must be positive")
	}
	return nil
}

func def(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func defInt(v string, fallback int) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func defDuration(v string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
