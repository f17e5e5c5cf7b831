// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// Enable ENV override like UPSTREAM_BASE_URL
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	// 1️⃣ base config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// 2️⃣ environment overlay, optional
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finalize(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finalize(v)
}

func finalize(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env in the working directory, its parents, and the module root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env", // test/e2e
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// Direct override if secrets are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	if cfg.Upstream.BaseURL == "" {
		if val := os.Getenv("UPSTREAM_BASE_URL"); val != "" {
			cfg.Upstream.BaseURL = val
		}
	}
	if cfg.Upstream.SharedSecret == "" {
		if val := os.Getenv("UPSTREAM_SHARED_SECRET"); val != "" {
			cfg.Upstream.SharedSecret = val
		}
	}
	if cfg.Session.SigningKey == "" {
		if val := os.Getenv("SESSION_SIGNING_KEY"); val != "" {
			cfg.Session.SigningKey = val
		}
	}

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
}

// DefaultGateRules cover every role-specific section of the portal.
func DefaultGateRules() []GateRule {
	return []GateRule{
		{Prefix: "/admin", Roles: []string{"admin"}},
		{Prefix: "/agent", Roles: []string{"agent", "admin"}},
		{Prefix: "/landlord", Roles: []string{"landlord", "admin"}},
		{Prefix: "/tenant", Roles: []string{"tenant", "admin"}},
		{Prefix: "/dashboard"},
		{Prefix: "/api/wizards"},
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "rental-portal"
	}

	// Server defaults
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}

	// Upstream defaults
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = 10000
	}
	if cfg.Upstream.SecretHeader == "" {
		cfg.Upstream.SecretHeader = "X-Proxy-Secret"
	}
	if cfg.Upstream.ProxyPrefix == "" {
		cfg.Upstream.ProxyPrefix = "/api/proxy"
	}
	cfg.Upstream.BaseURL = strings.TrimRight(cfg.Upstream.BaseURL, "/")

	// Session defaults
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "portal_session"
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 8 * 60 * 60 * 1000
	}

	if cfg.Gate.LoginPath == "" {
		cfg.Gate.LoginPath = "/login"
	}
	if len(cfg.Gate.Rules) == 0 {
		cfg.Gate.Rules = DefaultGateRules()
	}

	// Wizard defaults
	if cfg.Wizards.RegistryPath == "" {
		cfg.Wizards.RegistryPath = "configs/wizards.yaml"
	}
	if cfg.Wizards.DraftTTL == 0 {
		cfg.Wizards.DraftTTL = 24 * 60 * 60 * 1000
	}
	if cfg.Wizards.SubmitLock == 0 {
		cfg.Wizards.SubmitLock = 30000
	}
	if cfg.Wizards.MaxFileBytes == 0 {
		cfg.Wizards.MaxFileBytes = 10 << 20
	}

	// Search defaults
	if cfg.Search.Source == "" {
		cfg.Search.Source = "upstream"
	}
	if cfg.Search.Debounce == 0 {
		cfg.Search.Debounce = 300
	}
	if cfg.Search.CacheTTL == 0 {
		cfg.Search.CacheTTL = 60000
	}
	if cfg.Search.Index == "" {
		cfg.Search.Index = "properties"
	}
	if cfg.Search.MaxSuggestions == 0 {
		cfg.Search.MaxSuggestions = 8
	}

	// Map defaults
	if cfg.Map.OverviewZoom == (ZoomRange{}) {
		cfg.Map.OverviewZoom = ZoomRange{Min: 6, Max: 9}
	}
	if cfg.Map.DetailZoom == (ZoomRange{}) {
		cfg.Map.DetailZoom = ZoomRange{Min: 10, Max: 18}
	}
	if cfg.Map.SessionIdleTTL == 0 {
		cfg.Map.SessionIdleTTL = 30 * 60 * 1000
	}

	// Database defaults
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if len(cfg.Database.Elasticsearch.Addresses) == 0 && cfg.Database.Elasticsearch.URL != "" {
		cfg.Database.Elasticsearch.Addresses = []string{cfg.Database.Elasticsearch.URL}
	}

	if cfg.Notifications.AWS.Region == "" {
		cfg.Notifications.AWS.Region = "us-east-1"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if cfg.Upstream.SharedSecret == "" {
		return fmt.Errorf("upstream.shared_secret is required")
	}
	if cfg.Session.SigningKey == "" {
		return fmt.Errorf("session.signing_key is required")
	}
	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	if cfg.Database.Postgres.Enabled {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
	}

	switch cfg.Search.Source {
	case "upstream":
	case "elasticsearch":
		if len(cfg.Database.Elasticsearch.Addresses) == 0 {
			return fmt.Errorf("database.elasticsearch.addresses or url is required when search.source is elasticsearch")
		}
	default:
		return fmt.Errorf("search.source must be upstream or elasticsearch, got %q", cfg.Search.Source)
	}

	for name, r := range map[string]ZoomRange{"map.overview_zoom": cfg.Map.OverviewZoom, "map.detail_zoom": cfg.Map.DetailZoom} {
		if r.Min > r.Max {
			return fmt.Errorf("%s: min %.1f exceeds max %.1f", name, r.Min, r.Max)
		}
	}

	for _, rule := range cfg.Gate.Rules {
		if !strings.HasPrefix(rule.Prefix, "/") {
			return fmt.Errorf("gate rule prefix %q must start with /", rule.Prefix)
		}
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
