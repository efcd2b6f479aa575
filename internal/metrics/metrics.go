package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewServerMetrics(reg prometheus.Registerer) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})

	reg.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, LatencyMS: latency}
}

// ShopMetrics counts business events. A nil *ShopMetrics records nothing.
type ShopMetrics struct {
	OrdersPlaced       *prometheus.CounterVec
	RevenueRecognized  *prometheus.CounterVec
	OrdersCancelled    prometheus.Counter
	PaymentsVerified   prometheus.Counter
	CheckoutStockFails prometheus.Counter
}

func NewShopMetrics(reg prometheus.Registerer) *ShopMetrics {
	m := &ShopMetrics{
		OrdersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "shop",
			Name:      "orders_placed_total",
			Help:      "Orders placed, by payment method.",
		}, []string{"method"}),
		RevenueRecognized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "shop",
			Name:      "revenue_recognized_total",
			Help:      "Amount moved into completed payments, by payment method.",
		}, []string{"method"}),
		OrdersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "shop",
			Name:      "orders_cancelled_total",
			Help:      "Orders cancelled by customers.",
		}),
		PaymentsVerified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "shop",
			Name:      "payments_verified_total",
			Help:      "Online payments confirmed through verification.",
		}),
		CheckoutStockFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "shop",
			Name:      "checkout_insufficient_stock_total",
			Help:      "Checkouts rejected because stock ran out.",
		}),
	}
	reg.MustRegister(m.OrdersPlaced, m.RevenueRecognized, m.OrdersCancelled, m.PaymentsVerified, m.CheckoutStockFails)
	return m
}

func (m *ShopMetrics) OrderPlaced(method string) {
	if m == nil {
		return
	}
	m.OrdersPlaced.WithLabelValues(method).Inc()
}

func (m *ShopMetrics) Revenue(method string, amount float64) {
	if m == nil || amount <= 0 {
		return
	}
	m.RevenueRecognized.WithLabelValues(method).Add(amount)
}

func (m *ShopMetrics) Cancelled() {
	if m == nil {
		return
	}
	m.OrdersCancelled.Inc()
}

func (m *ShopMetrics) Verified() {
	if m == nil {
		return
	}
	m.PaymentsVerified.Inc()
}

func (m *ShopMetrics) StockRejected() {
	if m == nil {
		return
	}
	m.CheckoutStockFails.Inc()
}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
