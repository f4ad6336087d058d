package logging

import (
	"os"

	"github.com/JMURv/device-auth/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the process logger. In "prod" mode it writes JSON at info level,
// otherwise colored console output at debug level. When a log file is
// configured the output is also written to a rotating file.
func New(mode string, conf config.LogConfig) *zap.Logger {
	var (
		encCfg zapcore.EncoderConfig
		level  zapcore.Level
		enc    zapcore.Encoder
	)

	if mode == "prod" {
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		level = zapcore.InfoLevel
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		level = zapcore.DebugLevel
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.Lock(os.Stdout), level),
	}

	if conf.File != "" {
		fileEnc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(fileEnc, zapcore.AddSync(&lumberjack.Logger{
			Filename:   conf.File,
			MaxSize:    conf.MaxSizeMB,
			MaxBackups: conf.MaxBackups,
			MaxAge:     conf.MaxAgeDays,
			Compress:   true,
		}), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

func MustRegister(mode string, conf config.LogConfig) {
	zap.ReplaceGlobals(New(mode, conf))
}
