package compose

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig configures the optional rotating file logger a long-running
// Shell process may want (SPEC_FULL §A.1). The zero value means "don't
// rotate" — NewLogger falls back to a plain stderr encoder in that case.
type LogConfig struct {
	FilePath   string `yaml:"filePath"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
	Level      string `yaml:"level"`
}

// NewLogger builds the *zap.Logger an AppShell logs its diagnostics to
// (errors returned by a recompose pass, stale hit-path entries); Recomposer
// and InputDispatcher hold no logger of their own. A zero LogConfig yields
// a console logger; FilePath set
// rotates through lumberjack the same way the KoordeDHT example service
// wires it behind zapcore.WriteSyncer.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, err
		}
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg.FilePath == "" {
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(zapcore.AddSync(os.Stderr)), level)
		return zap.New(core), nil
	}

	writer := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    orDefault(cfg.MaxSizeMB, 100),
		MaxBackups: orDefault(cfg.MaxBackups, 5),
		MaxAge:     orDefault(cfg.MaxAgeDays, 28),
		Compress:   cfg.Compress,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(writer), level)
	return zap.New(core), nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// NopLogger returns a logger that discards everything, for callers that
// don't want the diagnostics stream. NewAppShell substitutes it for a nil
// logger, since AppShell calls its Logger without nil checks.
func NopLogger() *zap.Logger { return zap.NewNop() }
