package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(tokensConsumedTotal)
	register(quotaExceededTotal)
}

var tokensConsumedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "usage_tokens_consumed_total",
		Help: "Tokens drawn down from subscription quotas.",
	},
)

var quotaExceededTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "usage_quota_exceeded_total",
		Help: "Consume attempts rejected because the quota would be exceeded.",
	},
)

func AddTokensConsumed(n int64) {
	tokensConsumedTotal.Add(float64(n))
}

func IncQuotaExceeded() { quotaExceededTotal.Inc() }
