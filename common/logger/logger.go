package logger

import (
	"os"

	"postcare/common/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger 创建新的Logger实例
// level: "debug", "info", "warn", "error" (默认: "info")
// format: "json" 或 "console" (默认: "json")
// serviceName: 服务名称（如 "postcare"）
func NewLogger(level string, format string, serviceName string) (*zap.Logger, error) {
	return New(config.LogConfig{Level: level, Format: format}, serviceName)
}

// New 根据 LogConfig 创建 Logger
// cfg.File 非空时，同时写入 stdout 和滚动文件（lumberjack）
func New(cfg config.LogConfig, serviceName string) (*zap.Logger, error) {
	zapLevel := ParseLevel(cfg.Level)

	var zapCfg zap.Config
	if cfg.Format == "console" {
		// 开发模式配置（控制台输出）
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		// 生产模式配置（JSON输出）
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "timestamp"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zapCfg.OutputPaths = []string{"stdout"}
		zapCfg.ErrorOutputPaths = []string{"stderr"}
	}
	zapCfg.Level = zap.NewAtomicLevelAt(zapLevel)

	baseLogger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

	if cfg.File != "" {
		fileCore := zapcore.NewCore(
			newFileEncoder(cfg.Format),
			zapcore.AddSync(newRotatingWriter(cfg)),
			zapLevel,
		)
		baseLogger = baseLogger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, fileCore)
		}))
	}

	if serviceName != "" {
		baseLogger = baseLogger.With(zap.String("service_name", serviceName))
	}

	// 主机名（多实例部署时区分来源）
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		baseLogger = baseLogger.With(zap.String("hostname", hostname))
	}

	return baseLogger, nil
}

// ParseLevel 解析日志级别，未知值回退为 info
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func newFileEncoder(format string) zapcore.Encoder {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if format == "console" {
		return zapcore.NewConsoleEncoder(encCfg)
	}
	return zapcore.NewJSONEncoder(encCfg)
}

func newRotatingWriter(cfg config.LogConfig) *lumberjack.Logger {
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 50
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    maxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
}
