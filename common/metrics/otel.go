package metrics

import (
	"context"
	"os"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/ceramicnetwork/go-mint"
	"github.com/ceramicnetwork/go-mint/models"
)

var _ models.MetricService = &OtelMetricService{}

type OtelMetricService struct {
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	logger        models.Logger
	callerAttr    metric.MeasurementOption
	lock          sync.Mutex
	counters      map[models.MetricName]metric.Int64Counter
	histograms    map[models.MetricName]metric.Int64Histogram
}

// NewOtelMetricService exports over OTLP/HTTP when an endpoint is configured and to stderr otherwise. The exporter
// reads the endpoint from the standard OTEL_EXPORTER_OTLP_* variables.
func NewOtelMetricService(ctx context.Context, logger models.Logger) (*OtelMetricService, error) {
	var exporter sdkmetric.Exporter
	var err error
	if endpoint, found := os.LookupEnv(mint.Env_MetricsEndpoint); found && (len(endpoint) > 0) {
		logger.Infof("metrics: exporting to %s", endpoint)
		exporter, err = otlpmetrichttp.New(ctx)
	} else {
		exporter, err = stdoutmetric.New(stdoutmetric.WithWriter(os.Stderr))
	}
	if err != nil {
		return nil, err
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(resource.NewSchemaless(attribute.String("service.name", models.ServiceName))),
	)
	return newOtelMetricService(meterProvider, logger), nil
}

func newOtelMetricService(meterProvider *sdkmetric.MeterProvider, logger models.Logger) *OtelMetricService {
	return &OtelMetricService{
		meterProvider: meterProvider,
		meter:         meterProvider.Meter(models.MetricsCallerName),
		logger:        logger,
		callerAttr:    metric.WithAttributes(attribute.String("caller", models.MetricsCallerName)),
		counters:      make(map[models.MetricName]metric.Int64Counter),
		histograms:    make(map[models.MetricName]metric.Int64Histogram),
	}
}

func (o *OtelMetricService) Count(ctx context.Context, name models.MetricName, val int) error {
	counter, err := o.counter(name)
	if err != nil {
		o.logger.Errorf("metrics: error creating counter %s: %v", name, err)
		return err
	}
	counter.Add(ctx, int64(val), o.callerAttr)
	return nil
}

func (o *OtelMetricService) Distribution(ctx context.Context, name models.MetricName, val int) error {
	histogram, err := o.histogram(name)
	if err != nil {
		o.logger.Errorf("metrics: error creating histogram %s: %v", name, err)
		return err
	}
	histogram.Record(ctx, int64(val), o.callerAttr)
	return nil
}

// Shutdown flushes pending measurements.
func (o *OtelMetricService) Shutdown(ctx context.Context) {
	if err := o.meterProvider.Shutdown(ctx); err != nil {
		o.logger.Warnf("metrics: error shutting down meter provider: %v", err)
	}
}

func (o *OtelMetricService) counter(name models.MetricName) (metric.Int64Counter, error) {
	o.lock.Lock()
	defer o.lock.Unlock()
	if counter, found := o.counters[name]; found {
		return counter, nil
	}
	counter, err := o.meter.Int64Counter(string(name))
	if err != nil {
		return nil, err
	}
	o.counters[name] = counter
	return counter, nil
}

func (o *OtelMetricService) histogram(name models.MetricName) (metric.Int64Histogram, error) {
	o.lock.Lock()
	defer o.lock.Unlock()
	if histogram, found := o.histograms[name]; found {
		return histogram, nil
	}
	histogram, err := o.meter.Int64Histogram(string(name), metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	o.histograms[name] = histogram
	return histogram, nil
}
