package observability

import (
	"jobalign/internal/config"
)

// GetObservabilityConfig translates the loaded application config into the
// manager's config. A nil config yields a console-only setup with full
// sampling, used by early startup paths before configuration is available.
func GetObservabilityConfig(cfg *config.Config, version string) ObservabilityConfig {
	if cfg == nil {
		return ObservabilityConfig{
			Enabled:        true,
			ServiceName:    "jobalign",
			ServiceVersion: version,
			SampleRate:     1.0,
			ConsoleOutput:  true,
			PrettyPrint:    true,
			Prometheus:     GetPrometheusConfig(cfg),
		}
	}

	obs := cfg.Observability
	out := ObservabilityConfig{
		Enabled:        obs.Enabled,
		ServiceName:    obs.ServiceName,
		ServiceVersion: obs.ServiceVersion,
		SampleRate:     obs.SampleRate,
		ConsoleOutput:  obs.ConsoleOutput,
		PrettyPrint:    obs.Console.PrettyPrint,
		Prometheus: PrometheusConfig{
			Enabled:  obs.Prometheus.Enabled,
			Endpoint: obs.Prometheus.Endpoint,
			Port:     obs.Prometheus.Port,
		},
	}
	if out.ServiceVersion == "" {
		out.ServiceVersion = version
	}
	return out
}
