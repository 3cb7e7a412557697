package config

import (
	"errors"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config struct holds application configuration.
type Config struct {
	HTTPAddr    string
	DatabaseURL string
	JWTSecret   string
	LogLevel    string

	GeminiAPIKey string
	GeminiModel  string

	DBConnectRetries int
	SeedSampleData   bool

	AdminUsername string
	AdminEmail    string
	AdminPassword string

	Forecast ForecastConfig
}

// ForecastConfig tunes the forecasting pipeline.
type ForecastConfig struct {
	HorizonDays int
	Epochs      int
	Workers     int
	ItemTimeout time.Duration
	// Seed is nil unless FORECAST_SEED is set.
	Seed *int64
}

// Load reads a .env file when present, then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded, using environment variables")
	}

	return Config{
		HTTPAddr:         getenv("HTTP_ADDR", ":3000"),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:        strings.TrimSpace(os.Getenv("JWT_SECRET")),
		LogLevel:         getenv("LOG_LEVEL", "info"),
		GeminiAPIKey:     strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:      getenv("GEMINI_MODEL", "gemini-2.5-flash-lite"),
		DBConnectRetries: getenvInt("DB_CONNECT_RETRIES", 30),
		SeedSampleData:   getenvBool("SEED_SAMPLE_DATA", false),
		AdminUsername:    strings.TrimSpace(os.Getenv("ADMIN_USERNAME")),
		AdminEmail:       strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
		Forecast: ForecastConfig{
			HorizonDays: getenvInt("FORECAST_HORIZON_DAYS", 20),
			Epochs:      getenvInt("FORECAST_EPOCHS", 50),
			Workers:     getenvInt("FORECAST_WORKERS", runtime.NumCPU()),
			ItemTimeout: getenvDuration("FORECAST_ITEM_TIMEOUT", 30*time.Second),
			Seed:        getenvInt64Ptr("FORECAST_SEED"),
		},
	}
}

// Validate reports missing required settings.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is not set"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is not set"))
	}
	if c.Forecast.HorizonDays <= 0 {
		errs = append(errs, errors.New("FORECAST_HORIZON_DAYS must be positive"))
	}
	if c.Forecast.Epochs <= 0 {
		errs = append(errs, errors.New("FORECAST_EPOCHS must be positive"))
	}
	return errors.Join(errs...)
}

// InsightsEnabled reports whether a Gemini key is configured.
func (c Config) InsightsEnabled() bool {
	return c.GeminiAPIKey != ""
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getenvInt64Ptr(key string) *int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}
