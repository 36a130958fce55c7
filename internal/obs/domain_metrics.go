package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CouponApplyTotal counts apply-coupon outcomes by result.
	CouponApplyTotal *prometheus.CounterVec
	// CartTotalsDuration records latency of the cart totals pipeline in milliseconds.
	CartTotalsDuration prometheus.Histogram
	// RemoteCallTotal counts remote subgraph call outcomes by service and result.
	RemoteCallTotal *prometheus.CounterVec
	// CacheLookupTotal counts cache lookups by entity and hit/miss outcome.
	CacheLookupTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CouponApplyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_apply_total",
			Help:      "Count of apply-coupon outcomes.",
		}, []string{"result"})
		CartTotalsDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cart_totals_duration_ms",
			Help:      "Latency of the cart totals pipeline in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000},
		})
		RemoteCallTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_call_total",
			Help:      "Count of remote subgraph call outcomes.",
		}, []string{"service", "result"})
		CacheLookupTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookup_total",
			Help:      "Count of cache lookups by outcome.",
		}, []string{"entity", "result"})

		mustRegisterCollector(reg, CouponApplyTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CouponApplyTotal = v
			}
		})
		mustRegisterCollector(reg, CartTotalsDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				CartTotalsDuration = v
			}
		})
		mustRegisterCollector(reg, RemoteCallTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				RemoteCallTotal = v
			}
		})
		mustRegisterCollector(reg, CacheLookupTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CacheLookupTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
