package observability

import (
	"context"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAnalysis_ExportsThroughRegistry(t *testing.T) {
	reg := promclient.NewRegistry()
	obs, err := New("review-sentiment-test", reg)
	require.NoError(t, err)
	defer obs.Shutdown()

	obs.RecordAnalysis(context.Background(), 1500*time.Millisecond, "success", 12)
	obs.RecordAnalysis(context.Background(), 10*time.Millisecond, "not_found", 0)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, family := range families {
		names[family.GetName()] = true
	}
	assert.True(t, names["analyses_processed_total"], "got %v", names)
	assert.True(t, names["reviews_analyzed_total"], "got %v", names)
}

func TestZeroValueIsSafe(t *testing.T) {
	obs := &Observability{serviceName: "noop"}
	assert.NotPanics(t, func() {
		obs.RecordAnalysis(context.Background(), time.Second, "success", 3)
		obs.Shutdown()
	})
	assert.NotNil(t, obs.Tracer())
}

func TestTracer_SamplesSpans(t *testing.T) {
	obs, err := New("review-sentiment-test", promclient.NewRegistry())
	require.NoError(t, err)
	defer obs.Shutdown()

	_, span := obs.Tracer().Start(context.Background(), "probe")
	defer span.End()

	assert.True(t, span.SpanContext().IsSampled())
	assert.True(t, span.SpanContext().TraceID().IsValid())
}
