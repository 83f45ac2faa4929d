package metrics

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelProvider adapts an OpenTelemetry Meter to Provider.
// Static instrument attributes become measurement attributes on every recording.
// Instruments that the meter fails to create are reported through otel.Handle
// and replaced by no-op instruments.
type OTelProvider struct {
	meter metric.Meter
}

// NewOTelProvider wraps meter. A nil meter falls back to the global MeterProvider.
func NewOTelProvider(meter metric.Meter) *OTelProvider {
	if meter == nil {
		meter = otel.GetMeterProvider().Meter("github.com/ygrebnov/threadpool")
	}
	return &OTelProvider{meter: meter}
}

func (p *OTelProvider) Counter(name string, opts ...InstrumentOption) Counter {
	cfg := ApplyOptions(opts)
	c, err := p.meter.Int64Counter(name,
		metric.WithDescription(cfg.Description), metric.WithUnit(cfg.Unit))
	if err != nil {
		otel.Handle(err)
		return noop{}
	}
	return &otelCounter{c: c, attrs: measurementAttrs(cfg.Attributes)}
}

func (p *OTelProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	cfg := ApplyOptions(opts)
	c, err := p.meter.Int64UpDownCounter(name,
		metric.WithDescription(cfg.Description), metric.WithUnit(cfg.Unit))
	if err != nil {
		otel.Handle(err)
		return noop{}
	}
	return &otelUpDownCounter{c: c, attrs: measurementAttrs(cfg.Attributes)}
}

func (p *OTelProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	cfg := ApplyOptions(opts)
	h, err := p.meter.Float64Histogram(name,
		metric.WithDescription(cfg.Description), metric.WithUnit(cfg.Unit))
	if err != nil {
		otel.Handle(err)
		return noop{}
	}
	return &otelHistogram{h: h, attrs: measurementAttrs(cfg.Attributes)}
}

// measurementAttrs converts static attributes once, in key order.
func measurementAttrs(attrs map[string]string) metric.MeasurementOption {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kvs = append(kvs, attribute.String(k, v))
	}
	sort.Slice(kvs, func(i, j int) bool { return kvs[i].Key < kvs[j].Key })
	return metric.WithAttributeSet(attribute.NewSet(kvs...))
}

type otelCounter struct {
	c     metric.Int64Counter
	attrs metric.MeasurementOption
}

func (c *otelCounter) Add(n int64) { c.c.Add(context.Background(), n, c.attrs) }

type otelUpDownCounter struct {
	c     metric.Int64UpDownCounter
	attrs metric.MeasurementOption
}

func (c *otelUpDownCounter) Add(n int64) { c.c.Add(context.Background(), n, c.attrs) }

type otelHistogram struct {
	h     metric.Float64Histogram
	attrs metric.MeasurementOption
}

func (h *otelHistogram) Record(v float64) { h.h.Record(context.Background(), v, h.attrs) }
