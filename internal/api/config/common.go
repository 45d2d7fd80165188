package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg
func LoadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file not found: %w", err)
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()

	Cfg = &cfg

	return nil
}

// ApplyDefaults 为未配置的数值项填充默认值
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.JWT.ExpireHours <= 0 {
		c.JWT.ExpireHours = 24
	}
	if c.Mail.TimeoutSeconds <= 0 {
		c.Mail.TimeoutSeconds = 10
	}
	if c.Chat.DefaultPageSize <= 0 {
		c.Chat.DefaultPageSize = 20
	}
	if c.Chat.MaxPageSize <= 0 {
		c.Chat.MaxPageSize = 50
	}
	if c.Chat.ReminderAfterHours <= 0 {
		c.Chat.ReminderAfterHours = 72
	}
	if c.Chat.NotifyTimeoutSecs <= 0 {
		c.Chat.NotifyTimeoutSecs = 15
	}
	if c.Cron.ReminderSpec == "" {
		c.Cron.ReminderSpec = "@every 1h"
	}
}
