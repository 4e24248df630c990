package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for configuration
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = true

	DefaultOneBotWSURL             = "ws://127.0.0.1:3001"
	DefaultOneBotCallTimeout       = 10 * time.Second
	DefaultOneBotReconnectInterval = 5 * time.Second

	DefaultPolicyReply     = false
	DefaultPolicyBlacklist = true

	DefaultBlacklistPath = "data/zanwo.json"

	DefaultHTTPEnabled = true
	DefaultHTTPAddr    = ":8080"

	DefaultDBPath           = "zanbot.db"
	DefaultHistoryRetention = 30 * 24 * time.Hour
)

// DefaultMessages are the reply templates used when the config file does not override them.
var DefaultMessages = MessagesConfig{
	LikeSelfOK:   "已为你点赞 %d 次",
	LikeTargetOK: "已为 %s 点赞 %d 次",
	LikeFailed:   "点赞失败: %s",
	LikeLimited:  "点赞失败，可能是今日次数已用完或用户不存在",
	Usage:        "用法: .zanwo [次数] 或 .zan @某人/QQ号 [次数]",
}

// DefaultTasks are the scheduled tasks registered out of the box.
var DefaultTasks = map[string]any{
	"sql_maintenance": map[string]any{"enabled": true, "schedule": "0 0 4 * * *"},
	"history_prune":   map[string]any{"enabled": true, "schedule": "0 30 3 * * *"},
}

// setDefaults registers default values for every key so that environment
// variables can override any of them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	v.SetDefault("onebot.ws_url", DefaultOneBotWSURL)
	v.SetDefault("onebot.access_token", "")
	v.SetDefault("onebot.call_timeout", DefaultOneBotCallTimeout)
	v.SetDefault("onebot.reconnect_interval", DefaultOneBotReconnectInterval)

	v.SetDefault("policy.reply", DefaultPolicyReply)
	v.SetDefault("policy.blacklist", DefaultPolicyBlacklist)

	v.SetDefault("blacklist.path", DefaultBlacklistPath)

	v.SetDefault("http.enabled", DefaultHTTPEnabled)
	v.SetDefault("http.addr", DefaultHTTPAddr)

	v.SetDefault("database.path", DefaultDBPath)
	v.SetDefault("database.history_retention", DefaultHistoryRetention)

	v.SetDefault("scheduler.tasks", DefaultTasks)

	v.SetDefault("messages.like_self_ok", DefaultMessages.LikeSelfOK)
	v.SetDefault("messages.like_target_ok", DefaultMessages.LikeTargetOK)
	v.SetDefault("messages.like_failed", DefaultMessages.LikeFailed)
	v.SetDefault("messages.like_limited", DefaultMessages.LikeLimited)
	v.SetDefault("messages.usage", DefaultMessages.Usage)
}
