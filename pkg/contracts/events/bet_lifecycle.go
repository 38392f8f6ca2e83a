package events

import "time"

// Tipos de evento publicados no tópico "bet_lifecycle"
const (
	BetWagered  = "bet_wagered"
	BetSettled  = "bet_settled"
	BetRefunded = "bet_refunded"
)

// BetSnapshot é o estado da aposta como trafega no evento.
// Amount vai como string decimal ("12.5") para não perder precisão.
type BetSnapshot struct {
	BetID      string            `json:"betId"`
	Amount     string            `json:"amount"`
	Currency   string            `json:"currency"`
	Status     string            `json:"status"` // open | locked | settled | refunded
	WagerTxID  string            `json:"wagerTxId,omitempty"`
	PayoutTxID string            `json:"payoutTxId,omitempty"`
	RefundTxID string            `json:"refundTxId,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Evento emitido pelo bet-service após cada transição gravada com sucesso.
// Bet carrega o estado completo já com a transação desta etapa.
type BetLifecycle struct {
	EventType string      `json:"eventType"`
	TxID      string      `json:"txId"` // transação que gerou o evento
	Bet       BetSnapshot `json:"bet"`
	Ts        time.Time   `json:"ts"`
}
