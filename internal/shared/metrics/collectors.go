package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors agrupa as métricas de liquidação expostas pelos serviços.
type Collectors struct {
	SettlementOps   *prometheus.CounterVec   // op = wager|payout|refund|validate, outcome = ok|<erro>
	ProviderLatency *prometheus.HistogramVec // op = charge|payout|refund
	ProviderErrors  *prometheus.CounterVec
	AuditEvents     *prometheus.CounterVec // event_type, result = stored|duplicate|dlq|error
	CustodyTx       *prometheus.CounterVec // kind = charge|payout|refund, replay = true|false
}

func NewCollectors() *Collectors {
	return &Collectors{
		SettlementOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bet_settlement_operations_total",
			Help: "Operações do orquestrador de liquidação por resultado",
		}, []string{"op", "outcome"}),
		ProviderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payment_provider_request_seconds",
			Help:    "Latência das chamadas ao custodiante",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		ProviderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_provider_errors_total",
			Help: "Falhas nas chamadas ao custodiante",
		}, []string{"op"}),
		AuditEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bet_audit_events_total",
			Help: "Eventos de ciclo de vida processados pelo worker de auditoria",
		}, []string{"event_type", "result"}),
		CustodyTx: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "custody_transactions_total",
			Help: "Transações registradas pelo custody-service",
		}, []string{"kind", "replay"}),
	}
}

// Register registra todas as métricas; use prometheus.DefaultRegisterer no main.
func (c *Collectors) Register(reg prometheus.Registerer) error {
	for _, col := range []prometheus.Collector{
		c.SettlementOps, c.ProviderLatency, c.ProviderErrors, c.AuditEvents, c.CustodyTx,
	} {
		if err := reg.Register(col); err != nil {
			return err
		}
	}
	return nil
}
