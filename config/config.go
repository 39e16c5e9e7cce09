package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath    = "DARAH_CONFIG"
	EnvTelegramToken = "TELEGRAM_BOT_TOKEN"
	EnvDBPassword    = "DB_PASSWORD"
)

type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    string `yaml:"port" validate:"omitempty,numeric"`
}

type TelegramConfig struct {
	Token       string `yaml:"token" validate:"required"` // normally injected from TELEGRAM_BOT_TOKEN
	BotUsername string `yaml:"bot_username"`              // falls back to the name Telegram reports
	PollTimeout int    `yaml:"poll_timeout" validate:"gte=0"`
}

type DatasetURLsConfig struct {
	DonationsFacilityCSV string `yaml:"donations_facility_csv" validate:"required,url"`
	DonationsStateCSV    string `yaml:"donations_state_csv" validate:"required,url"`
	NewDonorsFacilityCSV string `yaml:"newdonors_facility_csv" validate:"required,url"`
	NewDonorsStateCSV    string `yaml:"newdonors_state_csv" validate:"required,url"`
	GranularParquet      string `yaml:"granular_parquet" validate:"required,url"`

	FetchTimeoutStr string        `yaml:"fetch_timeout"`
	MaxRetries      int           `yaml:"max_retries" validate:"gte=0,lte=10"`
	FetchTimeout    time.Duration `yaml:"-"` // Parsed duration
}

type DataFreshnessConfig struct {
	RefreshIntervalStr  string        `yaml:"refresh_interval"`
	CataloguePageURL    string        `yaml:"catalogue_page_url" validate:"omitempty,url"`
	LastUpdatedSelector string        `yaml:"last_updated_selector" validate:"required_with=CataloguePageURL"`
	RefreshInterval     time.Duration `yaml:"-"` // Parsed duration; 0 disables the refresher
}

type NormalizationConfig struct {
	Policy string `yaml:"policy" validate:"oneof=reject drop"`
}

type ReportsConfig struct {
	RegularDonorThreshold int    `yaml:"regular_donor_threshold" validate:"gte=1"`
	OutputDir             string `yaml:"output_dir"`
}

type LookupsConfig struct {
	Path   string `yaml:"path"` // empty means the embedded defaults
	Strict bool   `yaml:"strict"`
}

type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host" validate:"required_if=Enabled true"`
	Port     string `yaml:"port" validate:"required_if=Enabled true"`
	User     string `yaml:"user" validate:"required_if=Enabled true"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level       string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Telegram      TelegramConfig      `yaml:"telegram"`
	Datasets      DatasetURLsConfig   `yaml:"datasets"`
	DataFreshness DataFreshnessConfig `yaml:"data_freshness"`
	Normalization NormalizationConfig `yaml:"normalization"`
	Reports       ReportsConfig       `yaml:"reports"`
	Lookups       LookupsConfig       `yaml:"lookups"`
	Database      DatabaseConfig      `yaml:"database"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// DefaultConfig returns the settings the bot runs with when the YAML file leaves a field out.
func DefaultConfig() Config {
	return Config{
		Server:   ServerConfig{Enabled: true, Port: "8080"},
		Telegram: TelegramConfig{PollTimeout: 60},
		Datasets: DatasetURLsConfig{
			DonationsFacilityCSV: "https://raw.githubusercontent.com/MoH-Malaysia/data-darah-public/main/donations_facility.csv",
			DonationsStateCSV:    "https://raw.githubusercontent.com/MoH-Malaysia/data-darah-public/main/donations_state.csv",
			NewDonorsFacilityCSV: "https://raw.githubusercontent.com/MoH-Malaysia/data-darah-public/main/newdonors_facility.csv",
			NewDonorsStateCSV:    "https://raw.githubusercontent.com/MoH-Malaysia/data-darah-public/main/newdonors_state.csv",
			GranularParquet:      "https://dub.sh/ds-data-granular",
			FetchTimeoutStr:      "2m",
			MaxRetries:           2,
		},
		DataFreshness: DataFreshnessConfig{RefreshIntervalStr: "24h"},
		Normalization: NormalizationConfig{Policy: "reject"},
		Reports:       ReportsConfig{RegularDonorThreshold: 3},
		Lookups:       LookupsConfig{Strict: true},
		Logging:       LoggingConfig{Level: "info"},
	}
}

// LoadConfig reads configuration from the YAML file, then the environment.
// An empty configPath falls back to $DARAH_CONFIG and then to the usual locations.
func LoadConfig(configPath string) (*Config, error) {
	// A missing .env is normal in production; the token then comes from the real environment.
	_ = godotenv.Load()

	if configPath == "" {
		configPath = os.Getenv(EnvConfigPath)
	}
	if configPath == "" {
		potentialPaths := []string{
			"config.yaml",        // running from config/
			"config/config.yaml", // running from the repository root
		}
		for _, p := range potentialPaths {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	cfg := DefaultConfig()
	if configPath != "" {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
		if cfg.Lookups.Path != "" && !filepath.IsAbs(cfg.Lookups.Path) {
			cfg.Lookups.Path = filepath.Join(filepath.Dir(configPath), cfg.Lookups.Path)
		}
	}

	applyEnv(&cfg)

	if err := cfg.parseDurations(); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	if cfg.Reports.OutputDir != "" {
		if err := os.MkdirAll(cfg.Reports.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create report output directory: %w", err)
		}
	}

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvTelegramToken); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv(EnvDBPassword); v != "" {
		cfg.Database.Password = v
	}
}

func (cfg *Config) parseDurations() error {
	var err error
	if cfg.Datasets.FetchTimeoutStr != "" {
		cfg.Datasets.FetchTimeout, err = time.ParseDuration(cfg.Datasets.FetchTimeoutStr)
		if err != nil {
			return fmt.Errorf("failed to parse fetch_timeout: %w", err)
		}
	} else {
		cfg.Datasets.FetchTimeout = 2 * time.Minute // Default
	}

	if cfg.DataFreshness.RefreshIntervalStr != "" {
		cfg.DataFreshness.RefreshInterval, err = time.ParseDuration(cfg.DataFreshness.RefreshIntervalStr)
		if err != nil {
			return fmt.Errorf("failed to parse refresh_interval: %w", err)
		}
	}
	return nil
}

// Validate checks the struct tags on cfg.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
