package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/s1natex/todos-api-GO/internal/config"
)

func TestSetupTracing_None(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), config.TracingConfig{Exporter: config.ExporterNone})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetupTracing_StdoutExportsOnShutdown(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err := setupTracing(context.Background(), config.TracingConfig{
		Exporter:    config.ExporterStdout,
		ServiceName: "todos-test",
	}, &buf)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "reconcile-batch")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	require.Contains(t, buf.String(), "reconcile-batch")
	require.Contains(t, buf.String(), "todos-test")
}

func TestSetupTracing_UnknownExporter(t *testing.T) {
	_, err := SetupTracing(context.Background(), config.TracingConfig{Exporter: "zipkin"})
	require.Error(t, err)
}
