package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const appName = "lazysheet"

// Config holds all application configuration
type Config struct {
	General  GeneralConfig  `mapstructure:"general"`
	UI       UIConfig       `mapstructure:"ui"`
	Filter   FilterConfig   `mapstructure:"filter"`
	Export   ExportConfig   `mapstructure:"export"`
	History  HistoryConfig  `mapstructure:"history"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Log      LogConfig      `mapstructure:"log"`
}

type GeneralConfig struct {
	DefaultExportDir string `mapstructure:"default_export_dir"`
	ExportFormat     string `mapstructure:"export_format"`
}

type UIConfig struct {
	Theme        string `mapstructure:"theme"`
	MouseEnabled bool   `mapstructure:"mouse_enabled"`
	PageSize     int    `mapstructure:"page_size"`
}

type FilterConfig struct {
	SampleSize       int     `mapstructure:"sample_size"`
	NumericThreshold float64 `mapstructure:"numeric_threshold"`
	DefaultLogic     string  `mapstructure:"default_logic"`
}

type ExportConfig struct {
	SheetName      string `mapstructure:"sheet_name"`
	AutoFormat     bool   `mapstructure:"auto_format"`
	MaxColumnWidth int    `mapstructure:"max_column_width"`
}

type HistoryConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	MaxRecent int  `mapstructure:"max_recent"`
	MaxRuns   int  `mapstructure:"max_runs"`
}

type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	// UseKeyring fills a missing DSN password from the OS keyring
	UseKeyring bool `mapstructure:"use_keyring"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	return &Config{
		General: GeneralConfig{
			DefaultExportDir: ".",
			ExportFormat:     "xlsx",
		},
		UI: UIConfig{
			Theme:        "default",
			MouseEnabled: true,
			PageSize:     100,
		},
		Filter: FilterConfig{
			SampleSize:       200,
			NumericThreshold: 0.8,
			DefaultLogic:     "AND",
		},
		Export: ExportConfig{
			SheetName:      "Filtered Data",
			AutoFormat:     true,
			MaxColumnWidth: 50,
		},
		History: HistoryConfig{
			Enabled:   true,
			MaxRecent: 10,
			MaxRuns:   500,
		},
		Postgres: PostgresConfig{
			MaxConns:   4,
			UseKeyring: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := GetDefaults()
	v.SetDefault("general.default_export_dir", d.General.DefaultExportDir)
	v.SetDefault("general.export_format", d.General.ExportFormat)
	v.SetDefault("ui.theme", d.UI.Theme)
	v.SetDefault("ui.mouse_enabled", d.UI.MouseEnabled)
	v.SetDefault("ui.page_size", d.UI.PageSize)
	v.SetDefault("filter.sample_size", d.Filter.SampleSize)
	v.SetDefault("filter.numeric_threshold", d.Filter.NumericThreshold)
	v.SetDefault("filter.default_logic", d.Filter.DefaultLogic)
	v.SetDefault("export.sheet_name", d.Export.SheetName)
	v.SetDefault("export.auto_format", d.Export.AutoFormat)
	v.SetDefault("export.max_column_width", d.Export.MaxColumnWidth)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.max_recent", d.History.MaxRecent)
	v.SetDefault("history.max_runs", d.History.MaxRuns)
	v.SetDefault("postgres.dsn", d.Postgres.DSN)
	v.SetDefault("postgres.max_conns", d.Postgres.MaxConns)
	v.SetDefault("postgres.use_keyring", d.Postgres.UseKeyring)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// Load loads configuration from config.yaml in the usual places, a .env
// file in the working directory and LAZYSHEET_* environment variables.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches the
// user config directory, "." and "./config".
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		if configDir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(configDir, appName))
		}
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config (it's okay if file doesn't exist, we have defaults)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the rest of the application cannot work with
func (c *Config) Validate() error {
	if c.UI.PageSize <= 0 {
		return fmt.Errorf("ui.page_size must be positive, got %d", c.UI.PageSize)
	}
	if c.Filter.NumericThreshold < 0 || c.Filter.NumericThreshold > 1 {
		return fmt.Errorf("filter.numeric_threshold must be between 0 and 1, got %v", c.Filter.NumericThreshold)
	}
	switch strings.ToUpper(c.Filter.DefaultLogic) {
	case "AND", "OR":
	default:
		return fmt.Errorf("filter.default_logic must be AND or OR, got %q", c.Filter.DefaultLogic)
	}
	return nil
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

// DataPath returns a file under the user config directory, creating the
// directory when needed.
func DataPath(name string) (string, error) {
	dir, err := GetConfigPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return filepath.Join(dir, name), nil
}
