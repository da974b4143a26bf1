package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"conecta-ongs/internal/config"

	"github.com/grafana/loki-client-go/loki"
	slogloki "github.com/samber/slog-loki/v3"
)

const serviceName = "conecta-ongs"

func GetLogger(cfg config.Logs) *slog.Logger {
	level := parseLevel(cfg.Level)
	if cfg.URL == "" {
		return localLogger(os.Stdout, level)
	}

	logger, err := remoteLogger(cfg.URL, level)
	if err != nil {
		local := localLogger(os.Stdout, level)
		local.Error("loki unavailable, logging to stdout", "error", err)
		return local
	}
	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func localLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(ContextHandler{Handler: slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})})
}

func remoteLogger(url string, level slog.Level) (*slog.Logger, error) {
	lokiConfig, err := loki.NewDefaultConfig(url)
	if err != nil {
		return nil, err
	}
	client, err := loki.New(lokiConfig)
	if err != nil {
		return nil, err
	}

	return slog.New(slogloki.Option{
		Level:  level,
		Client: client,
		AttrFromContext: []func(ctx context.Context) []slog.Attr{
			attrsFromCtx,
		},
	}.NewLokiHandler()).With("service", serviceName), nil
}
