// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Backend       BackendConfig      `mapstructure:"backend"`
	Auth          AuthConfig         `mapstructure:"auth"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Documents     DocumentsConfig    `mapstructure:"documents"`
	Search        SearchConfig       `mapstructure:"search"`
	Dashboard     DashboardConfig    `mapstructure:"dashboard"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// BackendConfig points at the matching backend REST service.
type BackendConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	Timeout     int    `mapstructure:"timeout"` // milliseconds
	CompanyPath string `mapstructure:"company_path"`
	SearchPath  string `mapstructure:"search_path"`
	UploadPath  string `mapstructure:"upload_path"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	SQLite        SQLiteConfig        `mapstructure:"sqlite"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DocumentsConfig selects the document store driver and its read cache.
type DocumentsConfig struct {
	Driver   string `mapstructure:"driver"`    // postgres | sqlite | memory
	CacheTTL int    `mapstructure:"cache_ttl"` // milliseconds, 0 disables the redis cache
}

// SearchConfig selects where candidate keyword search is answered.
type SearchConfig struct {
	Provider string `mapstructure:"provider"` // backend | elasticsearch
	Index    string `mapstructure:"index"`
	MaxHits  int    `mapstructure:"max_hits"`
	Timeout  int    `mapstructure:"timeout"` // milliseconds
}

type DashboardConfig struct {
	DefaultWorkMode string `mapstructure:"default_work_mode"`
	DefaultSort     string `mapstructure:"default_sort"`
	RefreshSpec     string `mapstructure:"refresh_spec"`   // cron spec, empty disables
	ResyncTimeout   int    `mapstructure:"resync_timeout"` // milliseconds
}

// AuthConfig holds the identity provider settings.
type AuthConfig struct {
	Keycloak struct {
		URL          string `mapstructure:"url"`
		Realm        string `mapstructure:"realm"`
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
		Username     string `mapstructure:"username"`
		Password     string `mapstructure:"password"`
	} `mapstructure:"keycloak"`
}

// NotificationConfig holds settings for submission receipts.
type NotificationConfig struct {
	SES struct {
		Enabled   bool   `mapstructure:"enabled"`
		Region    string `mapstructure:"region"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"ses"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
