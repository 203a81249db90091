package instrument

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func keepDefaultLogger(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestNew_NilConfig(t *testing.T) {
	ins, err := New(context.Background(), nil)
	require.NoError(t, err)

	_, span := ins.Tracer("test").Start(context.Background(), "op")
	assert.False(t, span.IsRecording())
	span.End()
	assert.NoError(t, ins.Shutdown(context.Background()))
}

func TestNew_DisabledInstallsLogger(t *testing.T) {
	keepDefaultLogger(t)

	var buf bytes.Buffer
	ins, err := New(context.Background(), &Config{
		Enabled: false,
		Log:     LogConfig{ServiceName: "margamflow", Output: &buf},
	})
	require.NoError(t, err)

	slog.Info("ready")
	assert.Equal(t, "ready", decodeLine(t, &buf)["msg"])

	_, span := ins.Tracer("test").Start(context.Background(), "op")
	assert.False(t, span.IsRecording())
	assert.NoError(t, ins.Shutdown(context.Background()))
}

func TestNew_EnabledRecordsSpans(t *testing.T) {
	keepDefaultLogger(t)

	var buf bytes.Buffer
	ins, err := New(context.Background(), &Config{
		Enabled:          true,
		ServiceName:      "margamflow",
		OTLPEndpoint:     "127.0.0.1:4317",
		TraceSampleRatio: 1,
		Log:              LogConfig{ServiceName: "margamflow", Output: &buf},
	})
	require.NoError(t, err)

	_, span := ins.Tracer("test").Start(context.Background(), "op")
	assert.True(t, span.IsRecording())
	span.End()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = ins.Shutdown(ctx)
}

func TestNewFromProviders(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	ins := NewFromProviders(tp, metricnoop.NewMeterProvider())

	_, span := ins.Tracer("account.usecase").Start(context.Background(), "Login")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "Login", spans[0].Name())
	assert.Equal(t, "account.usecase", spans[0].InstrumentationScope().Name)
	assert.NoError(t, ins.Shutdown(context.Background()))
}
