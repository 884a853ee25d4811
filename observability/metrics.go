package observability

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"crowdsale/core/events"
)

type moduleMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics

	saleMetricsOnce sync.Once
	saleRegistry    *SaleMetrics
)

// ModuleMetrics returns the lazily-initialised registry used to record
// gateway handler activity.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &moduleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "crowdsale",
				Subsystem: "gateway",
				Name:      "requests_total",
				Help:      "Total gateway requests segmented by module and method.",
			}, []string{"module", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "crowdsale",
				Subsystem: "gateway",
				Name:      "errors_total",
				Help:      "Total gateway errors segmented by module, method, and status code.",
			}, []string{"module", "method", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "crowdsale",
				Subsystem: "gateway",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for gateway handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"module", "method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "crowdsale",
				Subsystem: "gateway",
				Name:      "throttles_total",
				Help:      "Count of requests rejected due to throttling policies.",
			}, []string{"module", "reason"}),
		}
		prometheus.MustRegister(
			moduleRegistry.requests,
			moduleRegistry.errors,
			moduleRegistry.latency,
			moduleRegistry.throttles,
		)
	})
	return moduleRegistry
}

// Observe records the outcome of a request. The status code should be the
// HTTP status that was ultimately written to the response writer.
func (m *moduleMetrics) Observe(module, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if status >= 400 {
		outcome = "error"
	}
	m.requests.WithLabelValues(module, method, outcome).Inc()
	if status >= 400 {
		m.errors.WithLabelValues(module, method, fmt.Sprintf("%d", status)).Inc()
	}
	m.latency.WithLabelValues(module, method).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter for the supplied module and
// reason.
func (m *moduleMetrics) RecordThrottle(module, reason string) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(module, reason).Inc()
}

// SaleMetrics tracks the sale from its event stream.
type SaleMetrics struct {
	contributions *prometheus.CounterVec
	raised        prometheus.Counter
	unitsSold     prometheus.Counter
	phase         *prometheus.GaugeVec
	refunds       prometheus.Counter
	refunded      prometheus.Counter
	intervals     prometheus.Counter
}

// Sale returns the singleton sale metrics registry.
func Sale() *SaleMetrics {
	saleMetricsOnce.Do(func() {
		saleRegistry = &SaleMetrics{
			contributions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "crowdsale",
				Subsystem: "sale",
				Name:      "contributions_total",
				Help:      "Accepted contributions segmented by verification tier.",
			}, []string{"tier"}),
			raised: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "crowdsale",
				Subsystem: "sale",
				Name:      "raised_wei",
				Help:      "Base currency raised across both windows.",
			}),
			unitsSold: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "crowdsale",
				Subsystem: "sale",
				Name:      "units_sold",
				Help:      "Asset units minted to contributors.",
			}),
			phase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "crowdsale",
				Subsystem: "sale",
				Name:      "phase",
				Help:      "Set to 1 for the current sale phase.",
			}, []string{"phase"}),
			refunds: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "crowdsale",
				Subsystem: "sale",
				Name:      "refunds_total",
				Help:      "Refund claims paid out.",
			}),
			refunded: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "crowdsale",
				Subsystem: "sale",
				Name:      "refunded_wei",
				Help:      "Base currency returned through refunds.",
			}),
			intervals: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "crowdsale",
				Subsystem: "scheduler",
				Name:      "intervals_total",
				Help:      "Scheduler intervals processed.",
			}),
		}
		prometheus.MustRegister(
			saleRegistry.contributions,
			saleRegistry.raised,
			saleRegistry.unitsSold,
			saleRegistry.phase,
			saleRegistry.refunds,
			saleRegistry.refunded,
			saleRegistry.intervals,
		)
	})
	return saleRegistry
}

// Emit implements events.Emitter.
func (m *SaleMetrics) Emit(evt events.Event) {
	if m == nil {
		return
	}
	payload := events.Payload(evt)
	if payload == nil {
		return
	}
	switch payload.Type {
	case "sale.contribution":
		tier := strings.TrimSpace(payload.Attr("tier"))
		if tier == "" {
			tier = "unknown"
		}
		m.contributions.WithLabelValues(tier).Inc()
		m.raised.Add(amountFloat(payload.Attr("amount")))
		m.unitsSold.Add(amountFloat(payload.Attr("tokens")))
	case "sale.phase.changed":
		if from := payload.Attr("from"); from != "" {
			m.phase.WithLabelValues(from).Set(0)
		}
		if to := payload.Attr("to"); to != "" {
			m.phase.WithLabelValues(to).Set(1)
		}
	case "sale.refund.claimed":
		m.refunds.Inc()
		m.refunded.Add(amountFloat(payload.Attr("amount")))
	case "scheduler.intervals.processed":
		if count, err := strconv.ParseUint(payload.Attr("count"), 10, 64); err == nil {
			m.intervals.Add(float64(count))
		}
	}
}

func amountFloat(raw string) float64 {
	value, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok || value.Sign() < 0 {
		return 0
	}
	f, _ := new(big.Float).SetInt(value).Float64()
	return f
}
