// Package config loads application configuration from config.yaml, a
// .env file, and LEADRANK_-prefixed environment variables, and owns
// global logger initialization.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/b4b-group/leadrank/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	GHL    GHLConfig    `yaml:"ghl" mapstructure:"ghl"`
	Zoho   ZohoConfig   `yaml:"zoho" mapstructure:"zoho"`
	Store  store.Config `yaml:"store" mapstructure:"store"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// GHLConfig holds GoHighLevel OAuth credentials and fetch settings.
type GHLConfig struct {
	ClientID     string  `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string  `yaml:"client_secret" mapstructure:"client_secret"`
	AuthCode     string  `yaml:"auth_code" mapstructure:"auth_code"`
	LocationID   string  `yaml:"location_id" mapstructure:"location_id"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	TokenFile    string  `yaml:"token_file" mapstructure:"token_file"`
	PageSize     int     `yaml:"page_size" mapstructure:"page_size"`
	RateLimit    float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ZohoConfig holds Zoho CRM OAuth credentials and search settings.
type ZohoConfig struct {
	ClientID     string  `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string  `yaml:"client_secret" mapstructure:"client_secret"`
	RefreshToken string  `yaml:"refresh_token" mapstructure:"refresh_token"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	AccountsURL  string  `yaml:"accounts_url" mapstructure:"accounts_url"`
	TokenFile    string  `yaml:"token_file" mapstructure:"token_file"`
	Criteria     string  `yaml:"criteria" mapstructure:"criteria"`
	RateLimit    float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// OutputConfig holds intermediate and report file locations.
type OutputConfig struct {
	DataDir       string `yaml:"data_dir" mapstructure:"data_dir"`
	DetailedCSV   string `yaml:"detailed_csv" mapstructure:"detailed_csv"`
	CondensedCSV  string `yaml:"condensed_csv" mapstructure:"condensed_csv"`
	Workbook      string `yaml:"workbook" mapstructure:"workbook"`
	WriteWorkbook bool   `yaml:"write_workbook" mapstructure:"write_workbook"`
}

// ServerConfig configures the results server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config file, and environment.
func Load() (*Config, error) {
	// Best-effort: a missing .env file is fine.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LEADRANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// SetDefaults registers every configuration default on v. Exposed so
// `config init` can render them into a starter file.
func SetDefaults(v *viper.Viper) {
	// Credentials default empty so env overrides bind and `config init`
	// renders the keys.
	v.SetDefault("ghl.client_id", "")
	v.SetDefault("ghl.client_secret", "")
	v.SetDefault("ghl.auth_code", "")
	v.SetDefault("ghl.location_id", "")
	v.SetDefault("zoho.client_id", "")
	v.SetDefault("zoho.client_secret", "")
	v.SetDefault("zoho.refresh_token", "")

	v.SetDefault("ghl.base_url", "https://services.leadconnectorhq.com")
	v.SetDefault("ghl.token_file", "ghl-tokens.json")
	v.SetDefault("ghl.page_size", 100)
	v.SetDefault("ghl.rate_limit", 5.0)
	v.SetDefault("zoho.base_url", "https://www.zohoapis.com/crm/v6")
	v.SetDefault("zoho.accounts_url", "https://accounts.zoho.com")
	v.SetDefault("zoho.token_file", "zoho-tokens.json")
	v.SetDefault("zoho.criteria", "(Lead_Source:equals:B4B)&(Lead_Source:equals:B4B Unqualified)")
	v.SetDefault("zoho.rate_limit", 5.0)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leadrank.db")
	v.SetDefault("output.data_dir", "data")
	v.SetDefault("output.detailed_csv", "detailed_results.csv")
	v.SetDefault("output.condensed_csv", "condensed_results.csv")
	v.SetDefault("output.workbook", "results.xlsx")
	v.SetDefault("output.write_workbook", true)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that the named command's required settings are
// present. Missing credentials abort before any network call.
func (c *Config) Validate(command string) error {
	switch command {
	case "fetch", "run":
		var missing []string
		if c.GHL.ClientID == "" {
			missing = append(missing, "ghl.client_id")
		}
		if c.GHL.ClientSecret == "" {
			missing = append(missing, "ghl.client_secret")
		}
		// The GHL refresh grant sends the install auth code alongside
		// the refresh token; a blank one fails only at token time.
		if c.GHL.AuthCode == "" {
			missing = append(missing, "ghl.auth_code")
		}
		if c.GHL.LocationID == "" {
			missing = append(missing, "ghl.location_id")
		}
		if c.Zoho.ClientID == "" {
			missing = append(missing, "zoho.client_id")
		}
		if c.Zoho.ClientSecret == "" {
			missing = append(missing, "zoho.client_secret")
		}
		if c.Zoho.RefreshToken == "" {
			missing = append(missing, "zoho.refresh_token")
		}
		if len(missing) > 0 {
			return eris.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
		}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
