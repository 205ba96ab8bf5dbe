package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	BackendLogrus = "logrus"
	BackendSlog   = "slog"

	FormatJSON = "json"
	FormatText = "text"
)

// New builds a Logger for the given backend ("logrus" or "slog"), level
// ("debug", "info", "warn", "error") and format ("json" or "text").
func New(backend, level, format string, w io.Writer) (Logger, error) {
	switch strings.ToLower(backend) {
	case "", BackendLogrus:
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		l := logrus.New()
		l.SetOutput(w)
		l.SetLevel(lvl)
		if strings.EqualFold(format, FormatText) {
			l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
		} else {
			l.SetFormatter(&logrus.JSONFormatter{})
		}
		return NewLogrusLogger(l), nil

	case BackendSlog:
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		opts := &slog.HandlerOptions{Level: lvl}
		var h slog.Handler
		if strings.EqualFold(format, FormatText) {
			h = slog.NewTextHandler(w, opts)
		} else {
			h = slog.NewJSONHandler(w, opts)
		}
		return NewSlogLogger(slog.New(h)), nil
	}

	return nil, fmt.Errorf("unknown log backend %q", backend)
}
