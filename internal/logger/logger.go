package logger

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

type Config struct {
	Level string `env:"LOG_LEVEL" env-default:"info"`
	Env   string `env:"LOG_ENV" env-default:"prod"`
	// File, when set, receives a JSON copy of every entry with size-based rotation.
	File        string        `env:"LOG_FILE"`
	MaxSizeMB   int           `env:"LOG_FILE_MAX_SIZE_MB" env-default:"100"`
	MaxBackups  int           `env:"LOG_FILE_MAX_BACKUPS" env-default:"3"`
	MaxAgeDays  int           `env:"LOG_FILE_MAX_AGE_DAYS" env-default:"28"`
	SlowRequest time.Duration `env:"LOG_SLOW_REQUEST" env-default:"1s"`
}

func New(config *Config) (*zap.Logger, error) {
	level := new(zapcore.Level)
	err := level.UnmarshalText([]byte(config.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", config.Level, err)
	}

	var (
		encoder zapcore.Encoder
		opts    = []zap.Option{zap.AddCaller(), zap.AddStacktrace(zap.DPanicLevel)}
	)
	switch config.Env {
	case EnvDev:
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
		opts = append(opts, zap.Development())
	case EnvProd, "":
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log env %q", config.Env)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)

	if config.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   config.File,
			MaxSize:    config.MaxSizeMB,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAgeDays,
		}
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(rotator), level)

		core = zapcore.NewTee(core, fileCore)
	}

	return zap.New(core, opts...), nil
}
