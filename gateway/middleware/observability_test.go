package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestObservabilityRecordsRequestMeters(t *testing.T) {
	previous := otel.GetMeterProvider()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	t.Cleanup(func() {
		otel.SetMeterProvider(previous)
		_ = provider.Shutdown(context.Background())
	})

	obs := NewObservability(ObservabilityConfig{ServiceName: "saled-test"}, nil)
	handler := obs.Middleware("sale", "/v1/sale/status")(okHandler())
	for i := 0; i < 3; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/sale/status", nil))
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	var requests int64
	var latencyPoints uint64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if m.Name == "crowdsale.gateway.requests" {
					for _, point := range data.DataPoints {
						requests += point.Value
					}
				}
			case metricdata.Histogram[float64]:
				if m.Name == "crowdsale.gateway.latency_ms" {
					for _, point := range data.DataPoints {
						latencyPoints += point.Count
					}
				}
			}
		}
	}
	if requests != 3 || latencyPoints != 3 {
		t.Fatalf("expected 3 requests recorded, got %d/%d", requests, latencyPoints)
	}
}
