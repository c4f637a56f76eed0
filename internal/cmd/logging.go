package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tomasbasham/figshare/internal/config"
)

// newLogger builds the logger handed to every component. Quiet raises the
// level to warn so per-response diagnostics disappear but failures do not.
func newLogger(w io.Writer, cfg config.LogConfig, quiet bool) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	if quiet && level > logrus.WarnLevel {
		level = logrus.WarnLevel
	}

	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)

	if strings.ToLower(cfg.Format) == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return l, nil
}
