package logging

import (
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/Vasu1712/sceneitem-widget/internal/config"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex

	settings = config.LoggingConfig{Level: "info", Format: "text"}
	output   io.Writer
)

// Configure applies the logging section of the config. Loggers created before
// the call are reconfigured in place.
func Configure(cfg config.LoggingConfig) {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	settings = cfg
	for _, entry := range loggers {
		apply(entry.Logger)
	}
}

// SetOutput redirects every logger, e.g. away from the terminal while a TUI owns it.
func SetOutput(w io.Writer) {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	output = w
	if w == nil {
		w = os.Stderr
	}
	for _, entry := range loggers {
		entry.Logger.SetOutput(w)
	}
}

// NewLogger creates and returns a pre-configured logger for a specific component.
// It uses a singleton pattern per component to avoid re-initializing.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	logger := logrus.New()
	apply(logger)

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}

func apply(logger *logrus.Logger) {
	levelStr := settings.Level
	if env := os.Getenv("SCENEITEM_LOG_LEVEL"); env != "" {
		levelStr = env
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if os.Getenv("SCENEITEM_LOG_CALLER") == "true" {
		logger.SetReportCaller(true)
	}

	switch settings.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		interactive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   interactive,
			DisableColors: !interactive,
		})
	}

	if output != nil {
		logger.SetOutput(output)
	} else {
		logger.SetOutput(os.Stderr)
	}
}
