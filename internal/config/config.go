package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	Matching MatchingConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type ServerConfig struct {
	Port string
}

type AppConfig struct {
	LogLevel      string
	MaxUploadSize int64
}

// MatchingConfig holds the reconciliation thresholds. Defaults reflect
// typical reconciliation UX and are tunable per deployment.
type MatchingConfig struct {
	// AutoSuggestThreshold is the minimum top-candidate confidence at
	// which a freshly imported transaction is marked suggested.
	AutoSuggestThreshold float64
	// DateWindowDays bounds the candidate search window on each side of
	// the transaction date.
	DateWindowDays int
	// AmountTolerancePercent and AmountToleranceFloor define the amount
	// tolerance: max(percent of amount, floor). Floor is in KES.
	AmountTolerancePercent decimal.Decimal
	AmountToleranceFloor   decimal.Decimal
	// Component weights. Must sum to 1.
	AmountWeight      float64
	DateWeight        float64
	DescriptionWeight float64
	// MaxSuggestions caps the ranked suggestion list.
	MaxSuggestions int
}

func Load() (*Config, error) {
	maxUpload, err := strconv.ParseInt(getEnv("MAX_UPLOAD_SIZE", "10485760"), 10, 64)
	if err != nil {
		maxUpload = 10 << 20
	}

	threshold, err := strconv.ParseFloat(getEnv("AUTO_SUGGEST_THRESHOLD", "0.85"), 64)
	if err != nil || threshold < 0 || threshold > 1 {
		threshold = 0.85
	}

	window, err := strconv.Atoi(getEnv("MATCH_DATE_WINDOW_DAYS", "7"))
	if err != nil || window < 0 {
		window = 7
	}

	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "bankrecon_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		App: AppConfig{
			LogLevel:      getEnv("LOG_LEVEL", "info"),
			MaxUploadSize: maxUpload,
		},
		Matching: MatchingConfig{
			AutoSuggestThreshold:   threshold,
			DateWindowDays:         window,
			AmountTolerancePercent: decimal.NewFromFloat(0.01),
			AmountToleranceFloor:   decimal.NewFromInt(1),
			AmountWeight:           0.5,
			DateWeight:             0.3,
			DescriptionWeight:      0.2,
			MaxSuggestions:         5,
		},
	}, nil
}

// DefaultMatchingConfig returns the matching thresholds with no env
// overrides applied.
func DefaultMatchingConfig() MatchingConfig {
	return MatchingConfig{
		AutoSuggestThreshold:   0.85,
		DateWindowDays:         7,
		AmountTolerancePercent: decimal.NewFromFloat(0.01),
		AmountToleranceFloor:   decimal.NewFromInt(1),
		AmountWeight:           0.5,
		DateWeight:             0.3,
		DescriptionWeight:      0.2,
		MaxSuggestions:         5,
	}
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
