// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode       string        `mapstructure:"GIN_MODE"`
	ServerHost    string        `mapstructure:"SERVER_HOST"`
	ServerPort    string        `mapstructure:"SERVER_PORT"`
	ServerTimeout time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`

	// Database Configuration
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Docs / Scan Configuration
	DocsRoot         string `mapstructure:"DOCS_ROOT"`
	ScanSchedule     string `mapstructure:"SCAN_SCHEDULE"`
	ScanOnStartup    bool   `mapstructure:"SCAN_ON_STARTUP"`
	ReportExportPath string `mapstructure:"REPORT_EXPORT_PATH"`
	DisabledRules    string `mapstructure:"DISABLED_RULES"`

	// Admin API
	AdminAPIToken string `mapstructure:"ADMIN_API_TOKEN"`

	// Elasticsearch Configuration (empty URL disables chapter search indexing)
	ElasticsearchURL string `mapstructure:"ELASTICSEARCH_URL"`
}

// DisabledRuleSet returns the DISABLED_RULES entries as a lookup set.
func (c *Config) DisabledRuleSet() map[string]bool {
	set := make(map[string]bool)
	for _, r := range strings.Split(c.DisabledRules, ",") {
		r = strings.TrimSpace(strings.ToUpper(r))
		if r != "" {
			set[r] = true
		}
	}
	return set
}

// Load attempts to load configuration from a .env file (if present) and
// environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()

	// Set default values
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "guidecheck_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("DOCS_ROOT", "")
	v.SetDefault("SCAN_SCHEDULE", "@daily")
	v.SetDefault("SCAN_ON_STARTUP", false)
	v.SetDefault("REPORT_EXPORT_PATH", "./reports")
	v.SetDefault("DISABLED_RULES", "")

	v.SetDefault("ADMIN_API_TOKEN", "")

	v.SetDefault("ELASTICSEARCH_URL", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Convert duration fields
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute

	// Basic validation for critical configs
	if strings.TrimSpace(cfg.DocsRoot) == "" {
		return nil, fmt.Errorf("FATAL: DOCS_ROOT is not set. The service needs a docs tree to scan")
	}
	if info, err := os.Stat(cfg.DocsRoot); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("FATAL: DOCS_ROOT (%s) is not an existing directory", cfg.DocsRoot)
	}

	return &cfg, nil
}
