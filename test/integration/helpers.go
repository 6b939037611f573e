package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Youmanvi/venuereserve/internal/activities"
	"github.com/Youmanvi/venuereserve/internal/engine"
	"github.com/Youmanvi/venuereserve/internal/infrastructure/config"
	"github.com/Youmanvi/venuereserve/internal/infrastructure/observability"
	"github.com/Youmanvi/venuereserve/test/fixtures"
)

// TestHarness runs the full stack the daemon runs, with in-memory sinks for
// logs, metrics and spans.
type TestHarness struct {
	Registry *activities.Registry
	Metrics  *observability.Metrics
	Spans    *tracetest.SpanRecorder
	Logs     *bytes.Buffer

	t   *testing.T
	seq int
}

// NewTestHarness opens a fresh SQLite store under t.TempDir()
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Engine.RetryBackoff = time.Millisecond
	cfg.Observability.LogLevel = "debug"

	logs := &bytes.Buffer{}
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { tp.Shutdown(context.Background()) })

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	eng, err := engine.New(fixtures.OpenStore(t), &cfg.Engine, engine.Options{
		Logger:  observability.NewLoggerWithWriter(&cfg.Observability, logs),
		Metrics: metrics,
		Tracer:  tp.Tracer("integration"),
		Now:     fixtures.Clock(),
	})
	require.NoError(t, err)

	return &TestHarness{
		Registry: activities.NewActivityRegistry(eng),
		Metrics:  metrics,
		Spans:    spans,
		Logs:     logs,
		t:        t,
	}
}

// Send pushes one request through the wire handler
func (h *TestHarness) Send(activity string, input any) activities.Response {
	h.t.Helper()
	raw, err := json.Marshal(input)
	require.NoError(h.t, err)
	h.seq++
	return h.Registry.Handle(context.Background(), activities.Request{
		ID:       activity,
		Activity: activity,
		TraceID:  traceID(h.seq),
		Input:    raw,
	})
}

// Call sends a request that must succeed and decodes its output into out
func (h *TestHarness) Call(activity string, input, out any) {
	h.t.Helper()
	resp := h.Send(activity, input)
	require.True(h.t, resp.OK, "%s: %+v", activity, resp.Error)
	if out != nil {
		require.NoError(h.t, json.Unmarshal(resp.Output, out))
	}
}

func traceID(n int) string {
	return fmt.Sprintf("it-%04d", n)
}
