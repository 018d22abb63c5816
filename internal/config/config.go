package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"postcare/common/config"

	"github.com/joho/godotenv"
)

// Config 术后监测服务配置
type Config struct {
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig
	Log      config.LogConfig

	HTTP struct {
		Addr            string
		ShutdownTimeout time.Duration
	}

	// Timezone 决定"今天"的日界线
	Timezone string
	Location *time.Location

	// 漏打卡巡检
	Sweep struct {
		Enabled      bool
		Interval     time.Duration // 默认 1 小时
		InitialDelay time.Duration // 启动后首次执行的延迟，默认 5 秒
	}

	// 报警分发
	Alert struct {
		Stream         string // Redis Stream 名称
		ConsumerGroup  string
		Consumer       string
		BatchSize      int64
		Block          time.Duration
		TopicPrefix    string // MQTT 主题前缀
		WebhookURL     string // 为空表示不启用
		WebhookTimeout time.Duration
	}

	// 医生端通知缓存
	Notification struct {
		KeyPrefix string
		MaxItems  int64
		TTL       time.Duration
	}

	MetricsEnabled bool

	// AutoMigrate 启动时执行内置建表语句
	AutoMigrate bool
}

// Load 加载配置（先读取 .env，再读取环境变量）
func Load() (*Config, error) {
	// .env 可选
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "postgres"
	cfg.Database.Password = "postgres"
	cfg.Database.Database = "postcare"
	cfg.Database.SSLMode = "disable"
	cfg.Database.MaxConns = 20
	cfg.Database.MaxIdle = 5
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTT.ClientID = "postcare-" + hostname()
	cfg.MQTT.QoS = 1
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")
	cfg.Log.File = getEnv("LOG_FILE", "")
	cfg.Log.MaxSizeMB = getEnvInt("LOG_MAX_SIZE_MB", 50)
	cfg.Log.MaxBackups = getEnvInt("LOG_MAX_BACKUPS", 5)
	cfg.Log.MaxAgeDays = getEnvInt("LOG_MAX_AGE_DAYS", 14)

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.HTTP.ShutdownTimeout = getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second)

	cfg.Timezone = getEnv("TIMEZONE", "UTC")
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	cfg.Sweep.Enabled = getEnvBool("SWEEP_ENABLED", true)
	cfg.Sweep.Interval = getEnvDuration("SWEEP_INTERVAL", time.Hour)
	cfg.Sweep.InitialDelay = getEnvDuration("SWEEP_INITIAL_DELAY", 5*time.Second)

	cfg.Alert.Stream = getEnv("ALERT_STREAM", "postcare:alerts")
	cfg.Alert.ConsumerGroup = getEnv("ALERT_CONSUMER_GROUP", "postcare-dispatcher")
	cfg.Alert.Consumer = getEnv("ALERT_CONSUMER", hostname())
	cfg.Alert.BatchSize = int64(getEnvInt("ALERT_BATCH_SIZE", 10))
	cfg.Alert.Block = getEnvDuration("ALERT_BLOCK", 2*time.Second)
	cfg.Alert.TopicPrefix = getEnv("ALERT_TOPIC_PREFIX", "postcare")
	cfg.Alert.WebhookURL = getEnv("ALERT_WEBHOOK_URL", "")
	cfg.Alert.WebhookTimeout = getEnvDuration("ALERT_WEBHOOK_TIMEOUT", 5*time.Second)

	cfg.Notification.KeyPrefix = getEnv("NOTIFICATION_KEY_PREFIX", "postcare:doctor:")
	cfg.Notification.MaxItems = int64(getEnvInt("NOTIFICATION_MAX_ITEMS", 100))
	cfg.Notification.TTL = getEnvDuration("NOTIFICATION_TTL", 7*24*time.Hour)

	cfg.MetricsEnabled = getEnvBool("METRICS_ENABLED", true)
	cfg.AutoMigrate = getEnvBool("DB_AUTO_MIGRATE", false)

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func hostname() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "postcare"
}
