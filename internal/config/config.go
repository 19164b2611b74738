// Package config loads moonquake settings from defaults, an optional JSON
// file, MOONQUAKE_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "moonquake.cfg.json"

// EnvPrefix prefixes environment overrides, e.g. MOONQUAKE_LOGLEVEL or
// MOONQUAKE_WINDOW_WIDTH.
const EnvPrefix = "MOONQUAKE"

// WindowConfig holds the viewer window settings.
type WindowConfig struct {
	Width  int    `json:"width" mapstructure:"width"`
	Height int    `json:"height" mapstructure:"height"`
	Title  string `json:"title" mapstructure:"title"`
}

// ComposeConfig holds the scene composition settings.
type ComposeConfig struct {
	AngleUnit        string  `json:"angleUnit" mapstructure:"angleUnit"`
	Flattening       float64 `json:"flattening" mapstructure:"flattening"`
	LabelPixelHeight float64 `json:"labelPixelHeight" mapstructure:"labelPixelHeight"`
	Placeholders     bool    `json:"placeholders" mapstructure:"placeholders"`
}

// TimelineConfig holds the event timeline settings.
type TimelineConfig struct {
	WindowDays float64 `json:"windowDays" mapstructure:"windowDays"`
	FadeIn     float64 `json:"fadeIn" mapstructure:"fadeIn"`
}

// Config is the complete moonquake configuration.
type Config struct {
	LogLevel   string         `json:"logLevel" mapstructure:"logLevel"`
	LogConsole bool           `json:"logConsole" mapstructure:"logConsole"`
	AssetDir   string         `json:"assetDir" mapstructure:"assetDir"`
	DataFile   string         `json:"dataFile" mapstructure:"dataFile"`
	LanderFile string         `json:"landerFile" mapstructure:"landerFile"`
	SQLitePath string         `json:"sqlitePath" mapstructure:"sqlitePath"`
	Window     WindowConfig   `json:"window" mapstructure:"window"`
	Compose    ComposeConfig  `json:"compose" mapstructure:"compose"`
	Timeline   TimelineConfig `json:"timeline" mapstructure:"timeline"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("logConsole", true)
	v.SetDefault("assetDir", "./assets")
	v.SetDefault("dataFile", "")
	v.SetDefault("landerFile", "")
	v.SetDefault("sqlitePath", "")

	v.SetDefault("window.width", 1280)
	v.SetDefault("window.height", 720)
	v.SetDefault("window.title", "Moonquakes")

	v.SetDefault("compose.angleUnit", "legacy")
	v.SetDefault("compose.flattening", 0.0)
	v.SetDefault("compose.labelPixelHeight", 40.0)
	v.SetDefault("compose.placeholders", true)

	v.SetDefault("timeline.windowDays", 15.0)
	v.SetDefault("timeline.fadeIn", 0.4)
}

// New returns a viper instance with defaults, the config file in configDir
// (if present) and environment overrides applied. Flags in fs are bound by
// their config key, so a flag named "logLevel" overrides the logLevel key.
// fs may be nil.
func New(configDir string, fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("error binding flags: %w", err)
		}
	}

	v.SetConfigName(FileName)
	v.SetConfigType("json")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return v, nil
}

// Load reads the configuration the way New does and decodes it.
func Load(configDir string, fs *pflag.FlagSet) (*Config, error) {
	v, err := New(configDir, fs)
	if err != nil {
		return nil, err
	}
	return Decode(v)
}

// Decode unmarshals the settings held by v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	return &cfg, nil
}
