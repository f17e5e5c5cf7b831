// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Upstream      UpstreamConfig     `mapstructure:"upstream"`
	Session       SessionConfig      `mapstructure:"session"`
	Gate          GateConfig         `mapstructure:"gate"`
	Wizards       WizardsConfig      `mapstructure:"wizards"`
	Search        SearchConfig       `mapstructure:"search"`
	Map           MapConfig          `mapstructure:"map"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Notifications NotificationConfig `mapstructure:"notifications"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string   `mapstructure:"address"`
	ReadTimeout     int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int      `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // milliseconds
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
}

// UpstreamConfig points at the remote backend API every data operation is delegated to.
type UpstreamConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	SharedSecret string `mapstructure:"shared_secret"`
	SecretHeader string `mapstructure:"secret_header"`
	Timeout      int    `mapstructure:"timeout"` // milliseconds
	ProxyPrefix  string `mapstructure:"proxy_prefix"`
}

type SessionConfig struct {
	SigningKey string `mapstructure:"signing_key"`
	CookieName string `mapstructure:"cookie_name"`
	TTL        int    `mapstructure:"ttl"` // milliseconds
	Secure     bool   `mapstructure:"secure"`
}

// GateRule protects every path under Prefix. Empty Roles means any signed-in user.
type GateRule struct {
	Prefix string   `mapstructure:"prefix"`
	Roles  []string `mapstructure:"roles"`
}

type GateConfig struct {
	LoginPath string     `mapstructure:"login_path"`
	Rules     []GateRule `mapstructure:"rules"`
}

type WizardsConfig struct {
	RegistryPath string `mapstructure:"registry_path"`
	DraftTTL     int    `mapstructure:"draft_ttl"`   // milliseconds
	SubmitLock   int    `mapstructure:"submit_lock"` // milliseconds
	MaxFileBytes int64  `mapstructure:"max_file_bytes"`
}

type SearchConfig struct {
	Source         string `mapstructure:"source"`    // upstream | elasticsearch
	Debounce       int    `mapstructure:"debounce"`  // milliseconds
	CacheTTL       int    `mapstructure:"cache_ttl"` // milliseconds
	Index          string `mapstructure:"index"`
	MaxSuggestions int    `mapstructure:"max_suggestions"`
}

type LatLng struct {
	Lat float64 `mapstructure:"lat" json:"lat"`
	Lng float64 `mapstructure:"lng" json:"lng"`
}

type ZoomRange struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

type CountyConfig struct {
	Name string  `mapstructure:"name"`
	Lat  float64 `mapstructure:"lat"`
	Lng  float64 `mapstructure:"lng"`
}

type MapConfig struct {
	DefaultCenter  LatLng         `mapstructure:"default_center"`
	OverviewZoom   ZoomRange      `mapstructure:"overview_zoom"`
	DetailZoom     ZoomRange      `mapstructure:"detail_zoom"`
	Counties       []CountyConfig `mapstructure:"counties"`
	SessionIdleTTL int            `mapstructure:"session_idle_ttl"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
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

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NotificationConfig holds settings for submission receipts.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled  bool   `mapstructure:"enabled"`
		SenderID string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
