package telemetry

import (
	"testing"
	"time"

	"github.com/amp-labs/amp-tfsm/build"
	"github.com/amp-labs/amp-tfsm/envutil"
	"github.com/amp-labs/amp-tfsm/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		env      map[string]string
		expected Config
	}{
		{
			name: "defaults",
			env:  map[string]string{},
			expected: Config{
				ServiceName:    "mq3d",
				ServiceVersion: build.Current().Version,
				Site:           "bench",
				Timeout:        defaultTimeout,
			},
		},
		{
			name: "everything set",
			env: map[string]string{
				"OTEL_ENABLED":                       "true",
				"OTEL_LOGS_ENABLED":                  "true",
				"OTEL_SERVICE_NAME":                  "breathalyzer",
				"OTEL_SERVICE_VERSION":               "2.1.0",
				"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT": "http://collector:4318/v1/traces",
				"OTEL_EXPORTER_OTLP_LOGS_ENDPOINT":   "http://collector:4318/v1/logs",
				"OTEL_EXPORTER_OTLP_TIMEOUT":         "2s",
			},
			expected: Config{
				ServiceName:    "breathalyzer",
				ServiceVersion: "2.1.0",
				Site:           "bench",
				TracesEndpoint: "http://collector:4318/v1/traces",
				LogsEndpoint:   "http://collector:4318/v1/logs",
				Enabled:        true,
				LogsEnabled:    true,
				Timeout:        2 * time.Second,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := logger.WithSubsystem(t.Context(), "mq3d")
			for k, v := range tt.env {
				ctx = envutil.WithEnvOverride(ctx, k, v)
			}

			config, err := LoadConfigFromEnv(ctx, "bench")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, *config)
		})
	}
}

func TestLoadConfigFromEnvBadTimeout(t *testing.T) {
	t.Parallel()

	ctx := envutil.WithEnvOverride(t.Context(), "OTEL_EXPORTER_OTLP_TIMEOUT", "soon")

	_, err := LoadConfigFromEnv(ctx, "bench")
	require.Error(t, err)
}

func TestDisabledIsNoop(t *testing.T) {
	t.Parallel()

	config := &Config{ServiceName: "mq3d", Timeout: defaultTimeout}

	require.NoError(t, Initialize(t.Context(), config))

	handler, err := LogHandler(t.Context(), config)
	require.NoError(t, err)
	assert.Nil(t, handler)

	require.NoError(t, Shutdown(t.Context()))
}
