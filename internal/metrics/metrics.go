package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	CheckoutsTotal     *prometheus.CounterVec
	ItemsFulfilled     prometheus.Counter
	ItemsRejected      prometheus.Counter
	AmountTotal        prometheus.Counter
	CheckoutLatencySec prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_checkouts_total",
		Help: "Checkout calls by outcome (full, partial, rejected, error).",
	}, []string{"outcome"})
	fulfilled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "store_checkout_items_fulfilled_total",
		Help: "Line items fulfilled across all checkouts.",
	})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "store_checkout_items_rejected_total",
		Help: "Line items left unfulfilled for lack of stock.",
	})
	amount := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "store_checkout_amount_total",
		Help: "Sum of ticket amounts issued.",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "store_checkout_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(checkouts, fulfilled, rejected, amount, latency)
	return &Registry{
		reg:                r,
		CheckoutsTotal:     checkouts,
		ItemsFulfilled:     fulfilled,
		ItemsRejected:      rejected,
		AmountTotal:        amount,
		CheckoutLatencySec: latency,
	}
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
