package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/grovetools/board/config"
	"github.com/grovetools/board/pkg/paths"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex
)

// NewLogger creates and returns a pre-configured logger for a specific component.
// Loggers are cached per component.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	var logCfg Config
	if cfg, err := config.LoadDefault(); err == nil {
		if err := cfg.UnmarshalExtension("logging", &logCfg); err != nil {
			logrus.Warnf("Failed to parse 'logging' config: %v", err)
		}
	}

	entry := newConfiguredLogger(component, logCfg)
	loggers[component] = entry
	return entry
}

// Discard returns an entry that drops everything. Useful as a nil-logger default.
func Discard() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger.WithField("component", "discard")
}

func newConfiguredLogger(component string, logCfg Config) *logrus.Entry {
	logger := logrus.New()

	levelStr := "info"
	if env := os.Getenv("BOARD_LOG_LEVEL"); env != "" {
		levelStr = env
	} else if logCfg.Level != "" {
		levelStr = logCfg.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if os.Getenv("BOARD_LOG_CALLER") == "true" || logCfg.Caller {
		logger.SetReportCaller(true)
	}

	switch logCfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "simple":
		logger.SetFormatter(&TextFormatter{Config: FormatConfig{
			DisableTimestamp: true,
			DisableComponent: true,
		}})
	default:
		logger.SetFormatter(&TextFormatter{})
	}

	var writers []io.Writer
	if w := openFileSink(component, logCfg.File, logger); w != nil {
		writers = append(writers, w)
	}
	if shouldLogToStderr(logCfg.Stderr, logger.GetLevel()) {
		writers = append(writers, terminal)
	}

	switch len(writers) {
	case 0:
		// Interactive terminal in auto mode with no file sink: stay quiet.
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}

	return logger.WithField("component", component)
}

// openFileSink opens the configured log file, or <state>/logs/<component>-<date>.log.
func openFileSink(component, file string, logger *logrus.Logger) io.Writer {
	if file == FileOff {
		return nil
	}
	explicit := file != ""

	var logFilePath string
	if explicit {
		logFilePath = expandPath(file)
	} else if dir := paths.LogDir(); dir != "" {
		dateStr := time.Now().Format("2006-01-02")
		logFilePath = filepath.Join(dir, fmt.Sprintf("%s-%s.log", component, dateStr))
	}
	if logFilePath == "" {
		return nil
	}

	dir := filepath.Dir(logFilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		// Only warn when the sink was explicitly configured
		if explicit {
			logger.Warnf("Failed to create log directory %s: %v", dir, err)
		}
		return nil
	}
	f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		if explicit {
			logger.Warnf("Failed to open log file %s: %v", logFilePath, err)
		}
		return nil
	}
	return f
}

// shouldLogToStderr decides the stderr sink. In "auto" mode structured logs go to
// stderr only when debugging or when stderr is not an interactive terminal.
func shouldLogToStderr(mode string, level logrus.Level) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	isDebug := os.Getenv("BOARD_DEBUG") == "1" || level >= logrus.DebugLevel
	isInteractive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	return isDebug || !isInteractive
}

// expandPath expands tilde in file paths
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
