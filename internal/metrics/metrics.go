package metrics

import (
	"log/slog"
	"time"

	"conecta-ongs/internal/config"

	"github.com/VictoriaMetrics/metrics"
)

// Setup starts pushing the default metrics set when a push URL is configured.
// Scraping through /metrics works either way.
func Setup(cfg config.Metrics, logger *slog.Logger) {
	if cfg.URL == "" {
		return
	}

	err := metrics.InitPush(cfg.URL, time.Duration(cfg.IntervalMs)*time.Millisecond, cfg.CommonLabels, true)
	if err != nil {
		logger.Error("Error initializing metrics push", "error", err)
	}
}
