package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(paymentConfirmationsTotal) }

var paymentConfirmationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "payment_confirmations_total",
		Help: "Payment confirmations by outcome (committed/replayed/failed).",
	},
	[]string{"provider", "outcome"},
)

func IncPaymentConfirmation(provider, outcome string) {
	paymentConfirmationsTotal.WithLabelValues(norm(provider), norm(outcome)).Inc()
}
