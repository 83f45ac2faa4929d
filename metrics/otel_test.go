package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestOTel(t *testing.T) (*OTelProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return NewOTelProvider(mp.Meter("test")), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestOTelProvider_Counter(t *testing.T) {
	p, reader := newTestOTel(t)

	c := p.Counter("submitted", WithDescription("d"), WithUnit("1"),
		WithAttributes(map[string]string{"pool": "web"}))
	c.Add(2)
	c.Add(3)

	m := collect(t, reader)["submitted"]
	require.Equal(t, "d", m.Description)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "unexpected aggregation %T", m.Data)
	require.True(t, sum.IsMonotonic)
	require.Len(t, sum.DataPoints, 1)
	require.EqualValues(t, 5, sum.DataPoints[0].Value)

	v, ok := sum.DataPoints[0].Attributes.Value(attribute.Key("pool"))
	require.True(t, ok)
	require.Equal(t, "web", v.AsString())
}

func TestOTelProvider_UpDownCounter(t *testing.T) {
	p, reader := newTestOTel(t)

	u := p.UpDownCounter("depth")
	u.Add(4)
	u.Add(-3)

	sum, ok := collect(t, reader)["depth"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.False(t, sum.IsMonotonic)
	require.Len(t, sum.DataPoints, 1)
	require.EqualValues(t, 1, sum.DataPoints[0].Value)
}

func TestOTelProvider_Histogram(t *testing.T) {
	p, reader := newTestOTel(t)

	h := p.Histogram("duration", WithUnit("s"))
	h.Record(0.5)
	h.Record(1.5)

	hist, ok := collect(t, reader)["duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	require.EqualValues(t, 2, hist.DataPoints[0].Count)
	require.InDelta(t, 2.0, hist.DataPoints[0].Sum, 1e-9)
}

func TestOTelProvider_NilMeterUsesGlobal(t *testing.T) {
	p := NewOTelProvider(nil)
	// The global provider is a no-op until configured; recording must not panic.
	p.Counter("x").Add(1)
	p.UpDownCounter("y").Add(1)
	p.Histogram("z").Record(1)
}
