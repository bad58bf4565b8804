package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartItemsAddedTotal counts add-to-cart operations, labelled by whether a new line was created.
	CartItemsAddedTotal *prometheus.CounterVec
	// CartItemsRemovedTotal counts explicit cart line removals.
	CartItemsRemovedTotal prometheus.Counter
	// CartQuantityRejectedTotal counts quantity updates rejected for being below one.
	CartQuantityRejectedTotal prometheus.Counter
	// DepartmentMenuOpenedTotal counts hover-delay timers that opened the departments menu.
	DepartmentMenuOpenedTotal prometheus.Counter
	// StorefrontSessionsActive reports the number of live session controllers.
	StorefrontSessionsActive prometheus.Gauge
	// ActivityEventsTotal counts activity events by topic and outcome.
	ActivityEventsTotal *prometheus.CounterVec
	// BreakerState reports circuit breaker state per target: 0=closed, 1=open, 2=half-open.
	BreakerState *prometheus.GaugeVec
	// BreakerTransitionsTotal counts circuit breaker state transitions.
	BreakerTransitionsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartItemsAddedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_items_added_total",
			Help:      "Count of add-to-cart operations by line outcome (new or existing).",
		}, []string{"line"})
		CartItemsRemovedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_items_removed_total",
			Help:      "Count of cart lines removed explicitly.",
		})
		CartQuantityRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_quantity_rejected_total",
			Help:      "Count of quantity updates rejected for being below one.",
		})
		DepartmentMenuOpenedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "department_menu_opened_total",
			Help:      "Count of departments menu openings after the hover delay.",
		})
		StorefrontSessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "storefront_sessions_active",
			Help:      "Number of live storefront session controllers.",
		})
		ActivityEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storefront_activity_events_total",
			Help:      "Count of storefront activity events by topic and result.",
		}, []string{"topic", "result"})
		BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Current breaker state: 0=closed,1=open,2=half-open.",
		}, []string{"target"})
		BreakerTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transition_total",
			Help:      "Count of breaker state transitions.",
		}, []string{"target", "from", "to"})

		mustRegisterCollector(reg, CartItemsAddedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartItemsAddedTotal = v
			}
		})
		mustRegisterCollector(reg, CartItemsRemovedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CartItemsRemovedTotal = v
			}
		})
		mustRegisterCollector(reg, CartQuantityRejectedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CartQuantityRejectedTotal = v
			}
		})
		mustRegisterCollector(reg, DepartmentMenuOpenedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				DepartmentMenuOpenedTotal = v
			}
		})
		mustRegisterCollector(reg, StorefrontSessionsActive, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Gauge); ok {
				StorefrontSessionsActive = v
			}
		})
		mustRegisterCollector(reg, ActivityEventsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ActivityEventsTotal = v
			}
		})
		mustRegisterCollector(reg, BreakerState, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.GaugeVec); ok {
				BreakerState = v
			}
		})
		mustRegisterCollector(reg, BreakerTransitionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BreakerTransitionsTotal = v
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
