package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	apperrors "github.com/edgard/zanbot/internal/errors"
)

// EnvPrefix is prepended to every environment override, e.g. BOT_ONEBOT_WS_URL.
const EnvPrefix = "BOT"

// LoadConfig loads and validates configuration from:
//  1. Default values
//  2. the YAML file at path (optional)
//  3. BOT_* environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, apperrors.NewConfigError("failed to read config file", err)
			}
			slog.Info("Configuration file not found, using defaults and environment", "path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to parse config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewConfigError("invalid configuration", err)
	}

	return cfg, nil
}

