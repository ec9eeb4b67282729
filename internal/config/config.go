// Package config loads agtasks configuration from a YAML file and
// AGTASKS_* environment variables via viper. Credentials for the external
// services come from here; the wizard itself never handles auth flows.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds everything the wizard needs to reach its collaborators.
type Config struct {
	Tracker struct {
		BaseURL string `mapstructure:"base_url"`
		Token   string `mapstructure:"token"`
	} `mapstructure:"tracker"`

	Persist struct {
		BaseURL string `mapstructure:"base_url"`
		APIKey  string `mapstructure:"api_key"`
	} `mapstructure:"persist"`

	Farm360 struct {
		Endpoint string `mapstructure:"endpoint"`
		APIKey   string `mapstructure:"api_key"`
	} `mapstructure:"farm360"`

	App struct {
		// BaseURL is the root of the web application; sub-issue deep links
		// point back into it.
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"app"`

	// UserEmail is the administrator the tracker requests are opened for.
	UserEmail string `mapstructure:"user_email"`

	Logging struct {
		File  string `mapstructure:"file"`
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`
}

// setDefaults registers default values with viper and binds the credential
// keys so they can come from the environment alone.
func setDefaults() {
	viper.SetDefault("logging.file", filepath.Join(ConfigDir(), "agtasks.log"))
	viper.SetDefault("logging.level", "info")

	for _, key := range []string{
		"tracker.base_url", "tracker.token",
		"persist.base_url", "persist.api_key",
		"farm360.endpoint", "farm360.api_key",
		"app.base_url", "user_email",
	} {
		_ = viper.BindEnv(key)
	}
}

// ConfigDir returns the user's agtasks config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "agtasks")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agtasks"
	}
	return filepath.Join(home, ".config", "agtasks")
}

// Load reads config.yaml from the given path (or the default config dir when
// empty), overlays AGTASKS_* environment variables, and validates the result.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("AGTASKS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing default file is fine when everything comes from the
		// environment; an explicit --config path must exist.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields without which no wizard run can work.
func (c *Config) Validate() error {
	switch {
	case c.Tracker.BaseURL == "":
		return fmt.Errorf("tracker.base_url is required")
	case c.Tracker.Token == "":
		return fmt.Errorf("tracker.token is required (or AGTASKS_TRACKER_TOKEN)")
	case c.Persist.BaseURL == "":
		return fmt.Errorf("persist.base_url is required")
	case c.Farm360.Endpoint == "":
		return fmt.Errorf("farm360.endpoint is required")
	case c.App.BaseURL == "":
		return fmt.Errorf("app.base_url is required")
	case c.UserEmail == "":
		return fmt.Errorf("user_email is required (or AGTASKS_USER_EMAIL)")
	}
	return nil
}
