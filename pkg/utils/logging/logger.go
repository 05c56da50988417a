package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogsDir is used when TEE_SHEET_LOG_DIR is not set
const DefaultLogsDir = "logs"

// InitLogger builds the application logger: coloured console output at Info and a
// JSON file at Debug named logs/<env>_<timestamp>.log
func InitLogger(env string) (*zap.Logger, error) {
	dir := os.Getenv("TEE_SHEET_LOG_DIR")
	if dir == "" {
		dir = DefaultLogsDir
	}
	return NewLogger(env, dir, os.Stdout, time.Now())
}

// NewLogger writes console output to console and the JSON log under dir
func NewLogger(env, dir string, console zapcore.WriteSyncer, started time.Time) (*zap.Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	path := LogFilePath(dir, env, started)
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	consoleConfig := zap.NewDevelopmentEncoderConfig()
	consoleConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	fileConfig := zap.NewProductionEncoderConfig()
	fileConfig.TimeKey = "timestamp"
	fileConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleConfig), console, zapcore.InfoLevel),
		zapcore.NewCore(zapcore.NewJSONEncoder(fileConfig), zapcore.AddSync(logFile), zapcore.DebugLevel),
	)

	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)).With(zap.String("env", env)), nil
}

// LogFilePath returns the JSON log path for a run started at started
func LogFilePath(dir, env string, started time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.log", env, started.Format("2006-01-02_15-04-05")))
}
