package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"crowdsale/observability"
)

type ObservabilityConfig struct {
	ServiceName string
	LogRequests bool
}

// Observability opens a span per request and records request metrics.
type Observability struct {
	cfg    ObservabilityConfig
	logger *slog.Logger
	tracer trace.Tracer

	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

func NewObservability(cfg ObservabilityConfig, logger *slog.Logger) *Observability {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "saled"
	}
	o := &Observability{
		cfg:    cfg,
		logger: logger.With("component", "http"),
		tracer: otel.Tracer(cfg.ServiceName),
	}
	o.initMeter()
	return o
}

func (o *Observability) initMeter() {
	name := o.cfg.ServiceName + "/gateway"
	meter := otel.GetMeterProvider().Meter(name)
	requests, err := meter.Int64Counter("crowdsale.gateway.requests")
	if err != nil {
		meter = noop.NewMeterProvider().Meter(name)
		requests, _ = meter.Int64Counter("crowdsale.gateway.requests")
	}
	latency, err := meter.Float64Histogram("crowdsale.gateway.latency_ms", metric.WithUnit("ms"))
	if err != nil {
		latency, _ = noop.NewMeterProvider().Meter(name).Float64Histogram("crowdsale.gateway.latency_ms")
	}
	o.requests = requests
	o.latency = latency
}

func (o *Observability) Middleware(module, route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx, span := o.tracer.Start(r.Context(), route, trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
			))
			defer span.End()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r.WithContext(ctx))
			span.SetAttributes(attribute.Int("http.status_code", recorder.status))
			if recorder.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(recorder.status))
			}
			duration := time.Since(start)
			observability.ModuleMetrics().Observe(module, route, recorder.status, duration)
			attrs := metric.WithAttributes(
				attribute.String("module", module),
				attribute.String("route", route),
				attribute.Int("status", recorder.status),
			)
			o.requests.Add(ctx, 1, attrs)
			o.latency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
			if o.cfg.LogRequests {
				o.logger.Info("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", recorder.status,
					"durationMs", float64(duration.Microseconds())/1000)
			}
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
