package config

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/feichai0017/hasty/pkg/logger"
)

// DefaultConfigPath is read when HASTY_CONFIG is not set.
const DefaultConfigPath = "config/hasty.yaml"

// AppConfig 应用配置
type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Log     logger.Config `yaml:"log"`
	Queue   QueueConfig   `yaml:"queue"`
	Storage StorageConfig `yaml:"storage"`
	Report  ReportConfig  `yaml:"report"`
	Auth    AuthConfig    `yaml:"auth"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	AllowOrigins    []string      `yaml:"allowOrigins"`
}

// QueueConfig 任务队列配置
type QueueConfig struct {
	RedisAddr      string         `yaml:"redisAddr"`
	RedisDB        int            `yaml:"redisDB"`
	Concurrency    int            `yaml:"concurrency"`
	MaxRetries     int            `yaml:"maxRetries"`
	RetryDelay     time.Duration  `yaml:"retryDelay"`
	ProcessTimeout time.Duration  `yaml:"processTimeout"`
	StatusTTL      time.Duration  `yaml:"statusTTL"`
	Queues         map[string]int `yaml:"queues"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	Type string `yaml:"type"` // s3 | minio
}

// ReportConfig 报表生成配置
type ReportConfig struct {
	MaxFileSize     int64         `yaml:"maxFileSize"`
	Concurrency     int           `yaml:"concurrency"`
	Retention       time.Duration `yaml:"retention"`
	PreviewRows     int           `yaml:"previewRows"`
	PreviewTechRows int           `yaml:"previewTechRows"`
}

// AuthConfig 登录配置
type AuthConfig struct {
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"tokenTTL"`
}

// DefaultAppConfig returns the configuration used for every field the file
// and environment leave unset.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
			AllowOrigins:    []string{"*"},
		},
		Log: logger.DefaultConfig(),
		Queue: QueueConfig{
			RedisAddr:      "localhost:6379",
			Concurrency:    5,
			MaxRetries:     3,
			RetryDelay:     time.Minute,
			ProcessTimeout: 30 * time.Minute,
			StatusTTL:      24 * time.Hour,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
		Storage: StorageConfig{Type: "minio"},
		Report: ReportConfig{
			MaxFileSize:     20 * 1024 * 1024,
			Concurrency:     1,
			Retention:       7 * 24 * time.Hour,
			PreviewRows:     20,
			PreviewTechRows: 31,
		},
		Auth: AuthConfig{
			Username: "admin",
			TokenTTL: 12 * time.Hour,
		},
	}
}

// LoadAppConfig 读取 yaml 配置文件并应用环境变量覆盖
//
// A missing file is not an error: defaults and environment are used.
func LoadAppConfig(path string) (*AppConfig, error) {
	loadEnv()

	cfg := DefaultAppConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	envString("HASTY_SERVER_ADDR", &cfg.Server.Addr)
	envString("HASTY_LOG_LEVEL", &cfg.Log.Level)
	envString("HASTY_LOG_ENCODING", &cfg.Log.Encoding)
	envString("REDIS_ADDR", &cfg.Queue.RedisAddr)
	envInt("REDIS_DB", &cfg.Queue.RedisDB)
	envInt("HASTY_QUEUE_CONCURRENCY", &cfg.Queue.Concurrency)
	envString("HASTY_STORAGE_TYPE", &cfg.Storage.Type)
	envInt64("HASTY_MAX_FILE_SIZE", &cfg.Report.MaxFileSize)
	envInt("HASTY_REPORT_CONCURRENCY", &cfg.Report.Concurrency)
	envDuration("HASTY_RETENTION", &cfg.Report.Retention)
	envString("HASTY_AUTH_USERNAME", &cfg.Auth.Username)
	envString("HASTY_AUTH_PASSWORD", &cfg.Auth.Password)
	envString("JWT_SECRET", &cfg.Auth.Secret)
	envDuration("HASTY_TOKEN_TTL", &cfg.Auth.TokenTTL)
}

// Validate 校验配置
func (c *AppConfig) Validate() error {
	switch c.Storage.Type {
	case "s3", "minio":
	default:
		return fmt.Errorf("unsupported storage type: %q", c.Storage.Type)
	}
	if c.Report.Concurrency < 1 {
		return fmt.Errorf("report concurrency must be at least 1, got %d", c.Report.Concurrency)
	}
	if c.Report.MaxFileSize <= 0 {
		return fmt.Errorf("report maxFileSize must be positive")
	}
	if c.Auth.Password != "" && c.Auth.Secret == "" {
		return fmt.Errorf("auth secret is required when a password is configured")
	}
	return nil
}

var (
	appOnce   sync.Once
	appConfig *AppConfig
	appErr    error
)

// GetAppConfig 获取全局配置（HASTY_CONFIG 或默认路径）
func GetAppConfig() (*AppConfig, error) {
	appOnce.Do(func() {
		path := os.Getenv("HASTY_CONFIG")
		if path == "" {
			path = DefaultConfigPath
		}
		appConfig, appErr = LoadAppConfig(path)
	})
	return appConfig, appErr
}
