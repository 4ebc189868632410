package observability

import (
	"testing"

	"github.com/smallbiznis/settlement/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfigNormalizes(t *testing.T) {
	cfg := LoadConfig(config.Config{
		AppName:      " ",
		AppVersion:   "1.2.3",
		Environment:  "Staging",
		OTLPEndpoint: "collector:4318",
		Observability: config.ObservabilityConfig{
			LogLevel:      "WARNING",
			LogFormat:     "console",
			OtelEnabled:   true,
			OtelProtocol:  "http/protobuf",
			SamplingRatio: 3,
		},
	})

	assert.Equal(t, "settlement", cfg.ServiceName)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.True(t, cfg.OtelEnabled)
	assert.Equal(t, "http", cfg.OtelExporterProtocol)
	assert.Equal(t, 1.0, cfg.OtelSamplingRatio)
	assert.False(t, cfg.Debug())
}

func TestLoadConfigProductionForcesJSON(t *testing.T) {
	cfg := LoadConfig(config.Config{
		Environment: "production",
		Observability: config.ObservabilityConfig{
			LogFormat:     "console",
			OtelEnabled:   true,
			SamplingRatio: -1,
		},
	})

	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "grpc", cfg.OtelExporterProtocol)
	assert.Equal(t, defaultSamplingRatio, cfg.OtelSamplingRatio)
	assert.False(t, cfg.OtelEnabled, "no endpoint means no exporter")
}

func TestDebugInDevelopment(t *testing.T) {
	cfg := LoadConfig(config.Config{Environment: "development"})
	assert.True(t, cfg.Debug())
}
