package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// BaseDir is where the store, cache files, charts and run history live.
const BaseDir = "data/nifty50/"

// Config holds all application configuration.
type Config struct {
	Archive struct {
		BaseURL           string        `yaml:"base_url" validate:"required,url"`
		IndexName         string        `yaml:"index_name" validate:"required"`
		Timeout           time.Duration `yaml:"timeout" validate:"gt=0"`
		RequestsPerSecond float64       `yaml:"requests_per_second" validate:"gt=0"`
	} `yaml:"archive"`
	Data struct {
		BaseDir   string `yaml:"base_dir" validate:"required"`
		StoreFile string `yaml:"store_file" validate:"required"`
		// StartDate seeds the watermark when the store has no rows (YYYY-MM-DD).
		StartDate string `yaml:"start_date" validate:"omitempty,datetime=2006-01-02"`
		Timezone  string `yaml:"timezone"`
	} `yaml:"data"`
	Render struct {
		// HTMLOnly skips the JPEG screenshots and keeps only the interactive pages,
		// for hosts without Chrome.
		HTMLOnly bool `yaml:"html_only"`
	} `yaml:"render"`
	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id" validate:"required_with=BotToken"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads .env and the YAML file (both optional), then applies environment
// variable overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("ARCHIVE_BASE_URL"); v != "" {
		cfg.Archive.BaseURL = v
	}
	if v := os.Getenv("INDEX_NAME"); v != "" {
		cfg.Archive.IndexName = v
	}
	if v := os.Getenv("DATA_BASE_DIR"); v != "" {
		cfg.Data.BaseDir = v
	}
	if v := os.Getenv("DATA_START_DATE"); v != "" {
		cfg.Data.StartDate = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_SCHEDULE"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("RENDER_HTML_ONLY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Render.HTMLOnly = b
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// Defaults
	if cfg.Archive.BaseURL == "" {
		cfg.Archive.BaseURL = "https://archives.nseindia.com/content/indices/ind_close_all_"
	}
	if cfg.Archive.IndexName == "" {
		cfg.Archive.IndexName = "Nifty 50"
	}
	if cfg.Archive.Timeout == 0 {
		cfg.Archive.Timeout = 30 * time.Second
	}
	if cfg.Archive.RequestsPerSecond == 0 {
		cfg.Archive.RequestsPerSecond = 2
	}
	if cfg.Data.BaseDir == "" {
		cfg.Data.BaseDir = BaseDir
	}
	if cfg.Data.StoreFile == "" {
		cfg.Data.StoreFile = "NIFTY 50_Data.xlsx"
	}
	if cfg.Data.Timezone == "" {
		cfg.Data.Timezone = "Asia/Kolkata"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = filepath.Join(cfg.Data.BaseDir, "runs.db")
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks field constraints declared in the struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// StorePath is the full path of the tabular store.
func (c *Config) StorePath() string {
	return filepath.Join(c.Data.BaseDir, c.Data.StoreFile)
}

// Location resolves the configured timezone, falling back to local time.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Data.Timezone)
	if err != nil {
		return time.Local, fmt.Errorf("load timezone %q: %w", c.Data.Timezone, err)
	}
	return loc, nil
}

// StartDate parses Data.StartDate. ok is false when unset.
func (c *Config) StartDate() (t time.Time, ok bool, err error) {
	if c.Data.StartDate == "" {
		return time.Time{}, false, nil
	}
	t, err = time.Parse("2006-01-02", c.Data.StartDate)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse start_date: %w", err)
	}
	return t, true, nil
}
