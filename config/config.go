package config

import "time"

// Config 网关全部配置
type Config struct {
	Server      ServerConfig      `mapstructure:"server" validate:"required"`
	Gemini      GeminiConfig      `mapstructure:"gemini" validate:"required"`
	Credentials CredentialsConfig `mapstructure:"credentials" validate:"required"`
	Dispatch    DispatchConfig    `mapstructure:"dispatch" validate:"required"`
	Prompt      PromptConfig      `mapstructure:"prompt"`
	Log         LogConfig         `mapstructure:"log" validate:"required"`
}

// ServerConfig 入站 HTTP 设置
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" validate:"gt=0"`
	CORSOrigin      string        `mapstructure:"cors_origin" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// GeminiConfig 上游地址与模型 (固定配置，不随请求变化)
type GeminiConfig struct {
	Endpoint        string `mapstructure:"endpoint" validate:"required,url"`
	Model           string `mapstructure:"model" validate:"required"`
	CredentialParam string `mapstructure:"credential_param" validate:"required"`
}

// CredentialsConfig 密钥来源: env (原始逗号分隔串) 或 sqlite (加密存储)
type CredentialsConfig struct {
	Source        string `mapstructure:"source" validate:"required,oneof=env sqlite"`
	Raw           string `mapstructure:"raw"`
	DBPath        string `mapstructure:"db_path" validate:"required_if=Source sqlite"`
	EncryptionKey string `mapstructure:"encryption_key" validate:"omitempty,len=16|len=24|len=32"`
}

// DispatchConfig 重试预算与退避
type DispatchConfig struct {
	MaxRetriesPerCredential int           `mapstructure:"max_retries_per_credential" validate:"gte=0,lte=10"`
	BaseDelay               time.Duration `mapstructure:"base_delay" validate:"gt=0"`
	MaxDelay                time.Duration `mapstructure:"max_delay" validate:"gtefield=BaseDelay"`
	Multiplier              float64       `mapstructure:"multiplier" validate:"gte=1"`
	RequestTimeout          time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
}

// PromptConfig 系统提示默认值
type PromptConfig struct {
	DefaultSystem string `mapstructure:"default_system"`
}

// LogConfig 日志设置
type LogConfig struct {
	Level     string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format    string `mapstructure:"format" validate:"required,oneof=json text"`
	File      string `mapstructure:"file"`
	MaxSizeMB int    `mapstructure:"max_size_mb" validate:"gte=0"`
}

