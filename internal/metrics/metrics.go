// Package metrics exposes Prometheus counters for guest traffic, broadcasts
// and the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prastut/wedding-jarvis-sub000/internal/broadcast"
)

// Metrics holds the collectors of one process. All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	inbound             *prometheus.CounterVec
	outbound            *prometheus.CounterVec
	broadcastRecipients *prometheus.CounterVec
	webhookRejected     *prometheus.CounterVec
	receipts            *prometheus.CounterVec
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// New registers every collector on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		inbound: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wedding_inbound_messages_total",
			Help: "Inbound guest messages by kind",
		}, []string{"kind"}),
		outbound: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wedding_outbound_messages_total",
			Help: "Outbound replies by result",
		}, []string{"result"}),
		broadcastRecipients: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wedding_broadcast_recipients_total",
			Help: "Broadcast recipients by outcome",
		}, []string{"outcome"}),
		webhookRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wedding_webhook_rejected_total",
			Help: "Webhook deliveries rejected before processing",
		}, []string{"reason"}),
		receipts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wedding_receipts_total",
			Help: "Delivery receipts by whether they matched a logged message",
		}, []string{"matched"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Registry returns the registry backing m
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// InboundMessage counts one inbound message of kind (text, interaction, duplicate)
func (m *Metrics) InboundMessage(kind string) {
	if m == nil {
		return
	}
	m.inbound.WithLabelValues(kind).Inc()
}

// OutboundMessage counts one reply send attempt
func (m *Metrics) OutboundMessage(ok bool) {
	if m == nil {
		return
	}
	m.outbound.WithLabelValues(result(ok)).Inc()
}

// WebhookRejected counts a webhook request dropped before processing
func (m *Metrics) WebhookRejected(reason string) {
	if m == nil {
		return
	}
	m.webhookRejected.WithLabelValues(reason).Inc()
}

// Receipt counts a delivery receipt
func (m *Metrics) Receipt(matched bool) {
	if m == nil {
		return
	}
	m.receipts.WithLabelValues(strconv.FormatBool(matched)).Inc()
}

// BroadcastObserver counts broadcast outcomes per recipient
func (m *Metrics) BroadcastObserver() broadcast.Observer {
	return broadcast.ObserverFunc(func(o broadcast.Outcome) {
		if m == nil {
			return
		}
		m.broadcastRecipients.WithLabelValues(result(o.OK())).Inc()
	})
}

// Middleware records request counts and latencies, labelled by route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := prometheus.Labels{
			"method": r.Method,
			"route":  route,
			"status": strconv.Itoa(status),
		}
		m.httpRequests.With(labels).Inc()
		m.httpDuration.With(labels).Observe(time.Since(start).Seconds())
	})
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
