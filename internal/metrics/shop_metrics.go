package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ShopMetrics содержит метрики для операций корзины и оформления заказа.
type ShopMetrics struct {
	// Счётчики мутаций корзины с разбивкой по операции и результату.
	cartMutations *prometheus.CounterVec
	// Гистограммы времени выполнения мутаций корзины.
	cartMutationDuration *prometheus.HistogramVec

	// Счётчики оформления заказов.
	ordersPlaced prometheus.Counter
	ordersFailed prometheus.Counter
	// Гистограмма времени оформления.
	checkoutDuration prometheus.Histogram

	// Gauge для зафиксированной суммы последнего заказа — удобен на демо-дашборде.
	lastOrderTotal prometheus.Gauge
}

// NewShopMetrics создаёт новый экземпляр метрик магазина.
func NewShopMetrics() *ShopMetrics {
	return newShopMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newShopMetricsWithRegisterer(registerer prometheus.Registerer) *ShopMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &ShopMetrics{
		cartMutations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "shop_cart_mutations_total",
			Help: "Total number of cart mutations grouped by operation and result",
		}, []string{"op", "result"}),
		cartMutationDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "shop_cart_mutation_duration_seconds",
			Help:    "Duration of cart mutations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"op"}),
		ordersPlaced: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_orders_placed_total",
			Help: "Total number of orders placed successfully",
		}),
		ordersFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_orders_failed_total",
			Help: "Total number of checkout attempts that failed",
		}),
		checkoutDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "shop_checkout_duration_seconds",
			Help:    "Duration of checkout commits in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		lastOrderTotal: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "shop_last_order_total_minor",
			Help: "Total of the most recently placed order in minor units",
		}),
	}
}

// RecordCartMutation фиксирует мутацию корзины и её длительность.
func (m *ShopMetrics) RecordCartMutation(op string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.cartMutations.WithLabelValues(op, result).Inc()
	m.cartMutationDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// RecordOrderPlaced фиксирует успешное оформление заказа.
func (m *ShopMetrics) RecordOrderPlaced(totalMinor int64, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
	m.checkoutDuration.Observe(elapsed.Seconds())
	m.lastOrderTotal.Set(float64(totalMinor))
}

// RecordOrderFailed фиксирует неудачную попытку оформления.
func (m *ShopMetrics) RecordOrderFailed() {
	if m == nil {
		return
	}
	m.ordersFailed.Inc()
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}
