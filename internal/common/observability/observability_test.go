package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpan_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	o := New("test", WithRegisterer(promclient.NewRegistry()), WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = o.Shutdown(context.Background()) })

	_, span := o.StartSpan(context.Background(), "stage.execute", attribute.String("stage", "executed"))
	EndSpan(span, errors.New("boom"))

	_, ok := o.StartSpan(context.Background(), "stage.parse")
	EndSpan(ok, nil)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "stage.execute", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("stage", "executed"))
	assert.Equal(t, codes.Unset, spans[1].Status().Code)
}

func TestNilObservability_IsSafe(t *testing.T) {
	var o *Observability
	ctx, span := o.StartSpan(context.Background(), "noop")
	assert.NotNil(t, ctx)
	EndSpan(span, nil)

	o.RecordRequest(context.Background(), "completed")
	o.RecordStageDuration(context.Background(), "parsed", time.Millisecond)
	assert.NoError(t, o.Shutdown(context.Background()))
}

func TestRecordMetrics_GatheredByRegistry(t *testing.T) {
	reg := promclient.NewRegistry()
	o := New("test", WithRegisterer(reg))
	t.Cleanup(func() { _ = o.Shutdown(context.Background()) })

	o.RecordRequest(context.Background(), "completed")
	o.RecordStageDuration(context.Background(), "executed", 12*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "pipeline_requests_total")
	assert.Contains(t, names, "pipeline_stage_duration_milliseconds")
	for _, name := range names {
		assert.NotContains(t, name, ".", "exported name %q", name)
	}
}
