package logging

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

// LevelFromString parses a configured log level ("debug", "info", "warn", "error").
func LevelFromString(inp string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(inp)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, errors.Errorf("unknown log level %q", inp)
	}
}
