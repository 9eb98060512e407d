package observability

import (
	"context"
	"errors"

	"github.com/grafana/pyroscope-go"
	"github.com/uptrace/uptrace-go/uptrace"

	"github.com/riskibarqy/osu-tournament-rating/internal/config"
	"github.com/riskibarqy/osu-tournament-rating/internal/platform/logging"
)

var profileTypes = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
	pyroscope.ProfileMutexDuration,
	pyroscope.ProfileBlockDuration,
}

// Telemetry tracks the exporters started for the process so they can be flushed on exit.
type Telemetry struct {
	logger *logging.Logger
	stops  []namedStop
}

type namedStop struct {
	name string
	stop func(context.Context) error
}

// StartTelemetry installs the Uptrace providers and the Pyroscope profiler
// according to cfg. A profiler that fails to start is logged and skipped.
func StartTelemetry(cfg config.Config, logger *logging.Logger) *Telemetry {
	if logger == nil {
		logger = logging.Default()
	}
	t := &Telemetry{logger: logger.Named("telemetry")}

	if cfg.UptraceEnabled && cfg.UptraceDSN != "" {
		uptrace.ConfigureOpentelemetry(
			uptrace.WithDSN(cfg.UptraceDSN),
			uptrace.WithServiceName(cfg.ServiceName),
			uptrace.WithServiceVersion(cfg.ServiceVersion),
			uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		)
		t.stops = append(t.stops, namedStop{name: "uptrace", stop: uptrace.Shutdown})
		t.logger.Info("tracing exported to uptrace", "service", cfg.ServiceName, "version", cfg.ServiceVersion)
	}

	if cfg.PyroscopeEnabled {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: cfg.PyroscopeAppName,
			ServerAddress:   cfg.PyroscopeServerAddress,
			AuthToken:       cfg.PyroscopeAuthToken,
			UploadRate:      cfg.PyroscopeUploadRate,
			ProfileTypes:    profileTypes,
			Tags: map[string]string{
				"env":     cfg.AppEnv,
				"version": cfg.ServiceVersion,
				"storage": cfg.Storage,
			},
		})
		if err != nil {
			t.logger.Warn("pyroscope not started", "error", err)
		} else {
			t.stops = append(t.stops, namedStop{name: "pyroscope", stop: func(context.Context) error { return profiler.Stop() }})
			t.logger.Info("continuous profiling enabled", "server", cfg.PyroscopeServerAddress, "app", cfg.PyroscopeAppName)
		}
	}

	return t
}

// Active lists the started exporters by name.
func (t *Telemetry) Active() []string {
	names := make([]string, 0, len(t.stops))
	for _, s := range t.stops {
		names = append(names, s.name)
	}
	return names
}

// Shutdown stops exporters in reverse start order and joins their errors.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(t.stops) - 1; i >= 0; i-- {
		if err := t.stops[i].stop(ctx); err != nil {
			errs = append(errs, errors.New(t.stops[i].name+": "+err.Error()))
		}
	}
	t.stops = nil
	return errors.Join(errs...)
}
