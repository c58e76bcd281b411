package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records reconciliation and fulfillment outcomes.
type PaymentMetrics struct {
	settlements  *prometheus.CounterVec
	failures     *prometheus.CounterVec
	fulfillments *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_settlements_total",
		Help: "Settled transactions by payment path.",
	}, []string{"path"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_failures_total",
		Help: "Failed or cancelled payments by reason.",
	}, []string{"reason"})
	fulfillments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_dispatches_total",
		Help: "Fulfillment dispatch outcomes by delivery status.",
	}, []string{"status"})
	reg.MustRegister(settlements, failures, fulfillments)
	return &PaymentMetrics{
		settlements:  settlements,
		failures:     failures,
		fulfillments: fulfillments,
	}
}

// IncSettlement increments the settlement counter for the named path.
func (p *PaymentMetrics) IncSettlement(path string) {
	if p == nil || p.settlements == nil {
		return
	}
	p.settlements.WithLabelValues(path).Inc()
}

// IncFailure increments the failure counter for the named reason.
func (p *PaymentMetrics) IncFailure(reason string) {
	if p == nil || p.failures == nil {
		return
	}
	p.failures.WithLabelValues(reason).Inc()
}

// IncFulfillment increments the dispatch counter for the delivery status.
func (p *PaymentMetrics) IncFulfillment(status string) {
	if p == nil || p.fulfillments == nil {
		return
	}
	p.fulfillments.WithLabelValues(status).Inc()
}
