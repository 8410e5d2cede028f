// Package config loads csvcat settings from defaults, an optional YAML
// file, CSVCAT_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/vegasq/csvcat/internal/logging"
	"github.com/vegasq/csvcat/output"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CSVCAT"

type Config struct {
	// Format names the output formatter; see output.Formats.
	Format string `mapstructure:"format"`
	// Output is a file path; empty means standard output.
	Output string `mapstructure:"output"`
	// Limit caps the number of result rows; zero means no cap.
	Limit int64 `mapstructure:"limit"`
	// History is the REPL history file.
	History string `mapstructure:"history"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

// flagKeys maps flag names onto configuration keys.
var flagKeys = map[string]string{
	"format":     "format",
	"output":     "output",
	"limit":      "limit",
	"history":    "history",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// RegisterFlags adds the flags Load understands to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("format", "f", "csv", "output format: "+strings.Join(output.Formats, ", "))
	fs.StringP("output", "o", "", "write results to `file` instead of stdout")
	fs.Int64("limit", 0, "cap the number of result rows (0 = unlimited)")
	fs.String("history", DefaultHistoryPath(), "REPL history `file`")
	fs.String("config", "", "read settings from this YAML `file`")
	fs.String("log-level", "warn", "log level: debug, info, warn, error")
	fs.String("log-format", "text", "log format: text, json")
}

// DefaultHistoryPath returns ~/.csvcat_history, or a relative path when
// the home directory is unknown.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".csvcat_history"
	}
	return filepath.Join(home, ".csvcat_history")
}

// Load resolves the configuration. fs may be nil. When fs carries a
// non-empty --config the file must exist; otherwise csvcat.yaml is looked
// up in the working directory and in $HOME/.config/csvcat.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault("format", "csv")
	v.SetDefault("output", "")
	v.SetDefault("limit", 0)
	v.SetDefault("history", DefaultHistoryPath())
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var explicit string
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			explicit = f.Value.String()
		}
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if explicit != "" {
		v.SetConfigFile(explicit)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("csvcat")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			v.AddConfigPath(filepath.Join(home, ".config", "csvcat"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if !slices.Contains(output.Formats, strings.ToLower(c.Format)) {
		return fmt.Errorf("invalid format %q (supported: %s)", c.Format, strings.Join(output.Formats, ", "))
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit must be non-negative, got %d", c.Limit)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: use text or json", c.Log.Format)
	}
	return nil
}
