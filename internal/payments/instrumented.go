package payments

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/radieske/custodial-bet-settlement/internal/settlement"
)

// Instrumented decora um Provider com latência e contagem de erros por operação.
type Instrumented struct {
	next    settlement.Provider
	latency *prometheus.HistogramVec
	errors  *prometheus.CounterVec
}

func NewInstrumented(next settlement.Provider, latency *prometheus.HistogramVec, errs *prometheus.CounterVec) *Instrumented {
	return &Instrumented{next: next, latency: latency, errors: errs}
}

func (i *Instrumented) CreateCharge(ctx context.Context, amount decimal.Decimal, currency, reference string) (string, error) {
	return i.observe("charge", func() (string, error) {
		return i.next.CreateCharge(ctx, amount, currency, reference)
	})
}

func (i *Instrumented) SendPayout(ctx context.Context, amount decimal.Decimal, currency, destination string) (string, error) {
	return i.observe("payout", func() (string, error) {
		return i.next.SendPayout(ctx, amount, currency, destination)
	})
}

func (i *Instrumented) RefundCharge(ctx context.Context, sourceTxID string) (string, error) {
	return i.observe("refund", func() (string, error) {
		return i.next.RefundCharge(ctx, sourceTxID)
	})
}

func (i *Instrumented) observe(op string, fn func() (string, error)) (string, error) {
	start := time.Now()
	txID, err := fn()
	i.latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		i.errors.WithLabelValues(op).Inc()
	}
	return txID, err
}
