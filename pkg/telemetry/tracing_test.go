package telemetry

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/jingkaihe/skillchef/pkg/config"
)

func TestInitTracerDisabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestFromSettings(t *testing.T) {
	cfg := FromSettings(config.TelemetryConfig{Enabled: true, Sampler: "ratio", SamplerRatio: 0.25})
	assert.True(t, cfg.Enabled)
	assert.Equal(t, ServiceName, cfg.ServiceName)
	assert.Equal(t, "ratio", cfg.SamplerType)
	assert.Equal(t, 0.25, cfg.SamplerRatio)
}

func TestGetSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), getSampler(Config{SamplerType: "always"}).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), getSampler(Config{SamplerType: "never"}).Description())
	assert.Contains(t, getSampler(Config{SamplerType: "ratio", SamplerRatio: 0.5}).Description(), "TraceIDRatioBased")
	assert.Equal(t, sdktrace.AlwaysSample().Description(), getSampler(Config{}).Description())
}

func TestWithSpanPropagatesError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := WithSpan(ctx, "test", func(ctx context.Context) error {
		SetAttributes(ctx, attribute.String("k", "v"))
		AddEvent(ctx, "event")
		return boom
	})
	assert.Equal(t, boom, err)

	assert.NoError(t, WithSpan(ctx, "ok", func(context.Context) error { return nil }))
}
