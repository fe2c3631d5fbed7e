package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "GATEWAY"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.cors_origin", "*")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("gemini.endpoint", "https://generativelanguage.googleapis.com/v1beta/models")
	v.SetDefault("gemini.model", "gemini-1.5-flash")
	v.SetDefault("gemini.credential_param", "key")

	v.SetDefault("credentials.source", "env")
	v.SetDefault("credentials.raw", "")
	v.SetDefault("credentials.db_path", "gateway.db")
	v.SetDefault("credentials.encryption_key", "")

	v.SetDefault("dispatch.max_retries_per_credential", 2)
	v.SetDefault("dispatch.base_delay", "1500ms")
	v.SetDefault("dispatch.max_delay", "30s")
	v.SetDefault("dispatch.multiplier", 2.0)
	v.SetDefault("dispatch.request_timeout", "120s")

	v.SetDefault("prompt.default_system", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
}

// Load 读取配置: 默认值 < config.yaml < 环境变量 (GATEWAY_ 前缀)
// path 为空时在当前目录查找可选的 config.yaml；启动前先加载 .env
func Load(path string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 常用的无前缀变量名
	if err := v.BindEnv("credentials.raw", envPrefix+"_CREDENTIALS_RAW", "GEMINI_API_KEYS", "GEMINI_API_KEY"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("server.port", envPrefix+"_SERVER_PORT", "PORT"); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 按 validate 标签校验配置
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
