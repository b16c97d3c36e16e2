// Package observability bundles logging, metrics, and tracing wiring.
package observability

import (
	"github.com/smallbiznis/procura/internal/config"
	"github.com/smallbiznis/procura/internal/observability/logger"
	"github.com/smallbiznis/procura/internal/observability/metrics"
	"github.com/smallbiznis/procura/internal/observability/tracing"
	"go.uber.org/fx"
)

const serviceName = "procura"

var Module = fx.Module("observability",
	logger.Module,
	fx.Provide(
		func(cfg config.Config) metrics.Config {
			return metrics.Config{
				ServiceName: serviceName,
				Environment: cfg.Environment,
			}
		},
		metrics.New,
		func(cfg config.Config) tracing.Config {
			return tracing.Config{
				Enabled:     cfg.Tracing.Enabled,
				ServiceName: serviceName,
				Environment: cfg.Environment,
				Endpoint:    cfg.Tracing.Endpoint,
			}
		},
	),
	fx.Invoke(tracing.NewProvider),
)
