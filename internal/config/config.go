// Package config provides configuration loading, defaults and validation
// for zanbot. Values come from defaults, an optional YAML file and BOT_*
// environment variables, in increasing order of precedence.
package config

import (
	"time"
)

// Config defines the application configuration for all components.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	OneBot    OneBotConfig    `mapstructure:"onebot"`
	Policy    PolicyConfig    `mapstructure:"policy"`
	Blacklist BlacklistConfig `mapstructure:"blacklist"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls the slog handler.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// OneBotConfig describes the forward WebSocket connection to the OneBot implementation.
type OneBotConfig struct {
	WSURL             string        `mapstructure:"ws_url"             validate:"required,url"`
	AccessToken       string        `mapstructure:"access_token"`
	CallTimeout       time.Duration `mapstructure:"call_timeout"       validate:"min=1s,max=2m"`
	ReconnectInterval time.Duration `mapstructure:"reconnect_interval" validate:"min=1s,max=10m"`
}

// PolicyConfig holds the two independent behaviour switches of the like commands.
// Reply toggles status replies; Blacklist toggles blacklist enforcement.
type PolicyConfig struct {
	Reply     bool `mapstructure:"reply"`
	Blacklist bool `mapstructure:"blacklist"`
}

// BlacklistConfig points at the JSON file mirroring the blacklist.
type BlacklistConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// HTTPConfig configures the web configuration page and API.
type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr" validate:"required_if=Enabled true"`
}

// DatabaseConfig configures the like history database.
type DatabaseConfig struct {
	Path             string        `mapstructure:"path"              validate:"required"`
	HistoryRetention time.Duration `mapstructure:"history_retention" validate:"min=1h"`
}

// SchedulerConfig maps task names to their schedule.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig is a single scheduled task entry.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MessagesConfig holds reply templates. LikeSelfOK takes the count,
// LikeTargetOK the target id and the count, LikeFailed the failure reason.
type MessagesConfig struct {
	LikeSelfOK   string `mapstructure:"like_self_ok"   validate:"required"`
	LikeTargetOK string `mapstructure:"like_target_ok" validate:"required"`
	LikeFailed   string `mapstructure:"like_failed"    validate:"required"`
	LikeLimited  string `mapstructure:"like_limited"   validate:"required"`
	Usage        string `mapstructure:"usage"          validate:"required"`
}
