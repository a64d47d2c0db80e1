package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, ExporterNone, cfg.ExporterType)
	assert.Equal(t, "go-gemma", cfg.ServiceName)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestNewDisabled(t *testing.T) {
	ctx := context.Background()
	tracer, err := New(ctx, Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, tracer)

	// Starting a span works even when disabled.
	_, span := tracer.Start(ctx, "test-span")
	require.NotNil(t, span)
	span.End()

	assert.NoError(t, tracer.Shutdown(ctx))
}

func TestNewStdoutExporter(t *testing.T) {
	ctx := context.Background()
	buf := &bytes.Buffer{}
	tracer, err := New(ctx, Config{
		Enabled:      true,
		ExporterType: ExporterStdout,
		ServiceName:  "test-service",
		Environment:  "test",
		SampleRate:   1.0,
		Output:       buf,
	})
	require.NoError(t, err)
	require.NotNil(t, tracer.provider)

	_, span := tracer.Start(ctx, "test-span")
	span.End()
	require.NoError(t, tracer.Shutdown(ctx))

	assert.Contains(t, buf.String(), "test-span")
}

func TestNewUnknownExporter(t *testing.T) {
	_, err := New(context.Background(), Config{
		Enabled:      true,
		ExporterType: ExporterType("jaeger"),
	})
	assert.Error(t, err)
}
