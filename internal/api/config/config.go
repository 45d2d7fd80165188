package config

// Config 配置主体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Mail     MailConfig     `mapstructure:"mail"`
	Logstash LogstashConfig `mapstructure:"logstash"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Cron     CronConfig     `mapstructure:"cron"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"` // 为空时允许任意来源
}

type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`

	// 慢命令阈值（毫秒）
	SlowMillis int `mapstructure:"slow_ms"`
}

// JWTConfig 令牌配置
type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	InternalEndpoint string `mapstructure:"internal_endpoint"`
	ExternalEndpoint string `mapstructure:"external_endpoint"`
	AccessKey        string `mapstructure:"access_key"`
	SecretKey        string `mapstructure:"secret_key"`
	Bucket           string `mapstructure:"bucket"`
	InternalUseSSL   bool   `mapstructure:"internal_use_ssl"`
}

type LLMConfig struct {
	URL         string `mapstructure:"url"`
	TextModel   string `mapstructure:"text_model"`
	ApiKey      string `mapstructure:"api_key"`
	PromptsPath string `mapstructure:"prompts_path"`

	// 同时在途请求上限，<=0 使用默认值
	MaxConcurrency int `mapstructure:"max_concurrency"`
}

// MailConfig 邮件中继配置
type MailConfig struct {
	URL            string `mapstructure:"url"`
	ApiKey         string `mapstructure:"api_key"`
	From           string `mapstructure:"from"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

// ChatConfig 聊天模块配置
type ChatConfig struct {
	DefaultPageSize    int `mapstructure:"default_page_size"`
	MaxPageSize        int `mapstructure:"max_page_size"`
	ReminderAfterHours int `mapstructure:"reminder_after_hours"`
	NotifyTimeoutSecs  int `mapstructure:"notify_timeout_seconds"`
}

type CronConfig struct {
	ReminderSpec string `mapstructure:"reminder_spec"`
}
