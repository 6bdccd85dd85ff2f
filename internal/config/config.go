package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	ProportionColorCount = 3
	CategoryColorCount   = 12
)

// Config holds every setting the dashboard reads
type Config struct {
	DataFile string       `mapstructure:"data_file"`
	Watch    bool         `mapstructure:"watch"`
	Log      LogConfig    `mapstructure:"log"`
	Theme    ThemeConfig  `mapstructure:"theme"`
	Charts   ChartsConfig `mapstructure:"charts"`
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

type ThemeConfig struct {
	Accent    string `mapstructure:"accent"`
	Text      string `mapstructure:"text"`
	Muted     string `mapstructure:"muted"`
	Subtle    string `mapstructure:"subtle"`
	Highlight string `mapstructure:"highlight"`
	Badge     string `mapstructure:"badge"`
}

type ChartsConfig struct {
	ProportionColors []string `mapstructure:"proportion_colors"`
	CategoryColors   []string `mapstructure:"category_colors"`
}

var defaultProportionColors = []string{"#f59e0b", "#3b82f6", "#10b981"}

var defaultCategoryColors = []string{
	"#3b82f6", "#10b981", "#f59e0b", "#ef4444",
	"#8b5cf6", "#ec4899", "#14b8a6", "#f97316",
	"#6366f1", "#84cc16", "#06b6d4", "#a855f7",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_file", "")
	v.SetDefault("watch", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("theme.accent", "63")
	v.SetDefault("theme.text", "252")
	v.SetDefault("theme.muted", "241")
	v.SetDefault("theme.subtle", "238")
	v.SetDefault("theme.highlight", "212")
	v.SetDefault("theme.badge", "196")
	v.SetDefault("charts.proportion_colors", defaultProportionColors)
	v.SetDefault("charts.category_colors", defaultCategoryColors)
}

// Default returns the built-in configuration without reading files or env
func Default() Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from cfgFile, or from config.yaml in the
// current directory and ~/.config/chatdash when cfgFile is empty.
// CHATDASH_* environment variables override file values.
func Load(cfgFile string) (Config, error) {
	return load(viper.New(), cfgFile)
}

func load(v *viper.Viper, cfgFile string) (Config, error) {
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "chatdash"))
		}
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("CHATDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.DataFile == "" {
		cfg.DataFile = defaultDataFile()
	}
	return cfg, nil
}

func defaultDataFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "sessions.jsonl"
	}
	return filepath.Join(home, ".chatdash", "sessions.jsonl")
}

// Validate checks palette sizes and the log level
func (c Config) Validate() error {
	if n := len(c.Charts.ProportionColors); n != ProportionColorCount {
		return fmt.Errorf("charts.proportion_colors: need %d colors, got %d", ProportionColorCount, n)
	}
	if n := len(c.Charts.CategoryColors); n != CategoryColorCount {
		return fmt.Errorf("charts.category_colors: need %d colors, got %d", CategoryColorCount, n)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	return nil
}
