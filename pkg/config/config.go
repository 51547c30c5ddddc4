// Package config loads persistent defaults for rq from a JSON file, RQ_*
// environment variables and command-line flags.
package config

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ideaspaper/rq/internal/paths"
	"github.com/ideaspaper/rq/pkg/errors"
	"github.com/ideaspaper/rq/pkg/models"
)

const (
	configFileName = "config"
	configFileType = "json"
	envPrefix      = "RQ"
)

// Config represents the application configuration
type Config struct {
	// HTTP client settings
	UserAgent       string `json:"userAgent" mapstructure:"userAgent"`
	TimeoutSeconds  int    `json:"timeoutInSeconds" mapstructure:"timeoutInSeconds" validate:"gte=0"`
	Proxy           string `json:"proxy" mapstructure:"proxy" validate:"omitempty,url"`
	FollowRedirects bool   `json:"followRedirect" mapstructure:"followRedirect"`
	HTTP2           bool   `json:"http2" mapstructure:"http2"`

	// Display settings
	PrettyPrint bool `json:"prettyPrint" mapstructure:"prettyPrint"`
	ShowColors  bool `json:"showColors" mapstructure:"showColors"`

	// Diagnostics
	LogFile string `json:"logFile" mapstructure:"logFile"`

	// Internal: viper instance and config path (not serialized)
	v          *viper.Viper `json:"-" mapstructure:"-"`
	configPath string       `json:"-" mapstructure:"-"`
}

// FlagKeys maps configuration keys to the flags that override them.
var FlagKeys = map[string]string{
	"userAgent":        "user-agent",
	"timeoutInSeconds": "timeout",
	"proxy":            "proxy",
	"http2":            "http2",
	"prettyPrint":      "pretty-print",
	"logFile":          "log-file",
}

// DefaultConfig returns a new config with default values
func DefaultConfig() *Config {
	return &Config{
		FollowRedirects: true,
		ShowColors:      true,
	}
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	v.SetDefault("userAgent", "")
	v.SetDefault("timeoutInSeconds", 0)
	v.SetDefault("proxy", "")
	v.SetDefault("followRedirect", true)
	v.SetDefault("http2", false)
	v.SetDefault("prettyPrint", false)
	v.SetDefault("showColors", true)
	v.SetDefault("logFile", "")
}

func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	// Allow environment variable overrides with prefix RQ_
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "binding flag --%s", name)
				}
			}
		}
	}
	return v, nil
}

// LoadConfig loads configuration from ~/.rq/config.json. A missing file
// yields the defaults.
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	path, err := paths.DefaultConfigPath()
	if err != nil {
		return nil, fmt.Errorf("%w: locating home directory: %w", errors.ErrConfig, err)
	}
	return LoadConfigFromDir(filepath.Dir(path), flags)
}

// LoadConfigFromDir loads config.json from dir. A missing file yields the
// defaults.
func LoadConfigFromDir(dir string, flags *pflag.FlagSet) (*Config, error) {
	v, err := newViper(flags)
	if err != nil {
		return nil, err
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(dir)

	return load(v, filepath.Join(dir, configFileName+"."+configFileType), true)
}

// LoadConfigFromFile loads configuration from a specific file path. Unlike
// the default location, an explicitly named file must exist.
func LoadConfigFromFile(filePath string, flags *pflag.FlagSet) (*Config, error) {
	v, err := newViper(flags)
	if err != nil {
		return nil, err
	}

	v.SetConfigFile(filePath)
	v.SetConfigType(configFileType)

	return load(v, filePath, false)
}

func load(v *viper.Viper, configPath string, optional bool) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if !missing || !optional {
			return nil, fmt.Errorf("%w: reading %s: %w", errors.ErrConfig, configPath, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", errors.ErrConfig, configPath, err)
	}

	cfg.v = v
	cfg.configPath = configPath

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the file the configuration was read from, or would have been.
func (c *Config) Path() string {
	return c.configPath
}

// GetViper returns the underlying viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}

// Timeout returns the configured request timeout; zero means none.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Options returns invocation options for url seeded with the configured
// defaults. Flags not covered by the configuration are left for the caller.
func (c *Config) Options(url string) *models.Options {
	opts := models.DefaultOptions(url)
	opts.UserAgent = c.UserAgent
	opts.Timeout = c.Timeout()
	opts.Proxy = c.Proxy
	opts.AllowRedirects = c.FollowRedirects
	opts.HTTP2Only = c.HTTP2
	opts.PrettyPrint = c.PrettyPrint
	return opts
}
