package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PricingEvaluationsTotal counts pricing runs by whether any promotion fired.
	PricingEvaluationsTotal *prometheus.CounterVec
	// PromotionDiscountsTotal counts applied discounts by scope (ITEM or CART).
	PromotionDiscountsTotal *prometheus.CounterVec
	// PromotionDiscountAmountTotal sums applied discount amounts by scope.
	PromotionDiscountAmountTotal *prometheus.CounterVec
	// CartMutationsTotal counts cart writes by operation and outcome.
	CartMutationsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PricingEvaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_evaluations_total",
			Help:      "Count of pricing evaluations by result.",
		}, []string{"result"})
		PromotionDiscountsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotion_discounts_total",
			Help:      "Count of applied promotion discounts by scope.",
		}, []string{"scope"})
		PromotionDiscountAmountTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotion_discount_amount_total",
			Help:      "Sum of applied promotion discount amounts by scope.",
		}, []string{"scope"})
		CartMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Count of cart mutations by operation and result.",
		}, []string{"op", "result"})

		for _, target := range []**prometheus.CounterVec{
			&PricingEvaluationsTotal,
			&PromotionDiscountsTotal,
			&PromotionDiscountAmountTotal,
			&CartMutationsTotal,
		} {
			mustRegisterCollector(reg, *target, func(existing prometheus.Collector) {
				if v, ok := existing.(*prometheus.CounterVec); ok {
					*target = v
				}
			})
		}
	})
}

// ObserveEvaluation records a pricing run. Calls before registration are dropped.
func ObserveEvaluation(discounted bool) {
	if PricingEvaluationsTotal == nil {
		return
	}
	result := "no_discount"
	if discounted {
		result = "discounted"
	}
	PricingEvaluationsTotal.WithLabelValues(result).Inc()
}

// ObserveDiscount records one applied discount of amount under scope.
func ObserveDiscount(scope string, amount int64) {
	if PromotionDiscountsTotal == nil || PromotionDiscountAmountTotal == nil {
		return
	}
	PromotionDiscountsTotal.WithLabelValues(scope).Inc()
	PromotionDiscountAmountTotal.WithLabelValues(scope).Add(float64(amount))
}

// ObserveCartMutation records the outcome of a cart write.
func ObserveCartMutation(op string, err error) {
	if CartMutationsTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	CartMutationsTotal.WithLabelValues(op, result).Inc()
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
