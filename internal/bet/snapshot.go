package bet

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Snapshot é a forma "plana" da aposta, usada por repositórios e eventos.
type Snapshot struct {
	ID         string            `json:"betId"`
	Amount     decimal.Decimal   `json:"amount"`
	Currency   string            `json:"currency"`
	Status     Status            `json:"status"`
	WagerTxID  string            `json:"wagerTxId,omitempty"`
	PayoutTxID string            `json:"payoutTxId,omitempty"`
	RefundTxID string            `json:"refundTxId,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

func (b *Bet) Snapshot() Snapshot {
	md := make(map[string]string, len(b.metadata))
	for k, v := range b.metadata {
		md[k] = v
	}
	return Snapshot{
		ID:         b.id,
		Amount:     b.amount,
		Currency:   b.currency,
		Status:     b.status,
		WagerTxID:  b.wagerTx.String(),
		PayoutTxID: b.payoutTx.String(),
		RefundTxID: b.refundTx.String(),
		Metadata:   md,
	}
}

// FromSnapshot reconstrói a aposta e rejeita combinações que violam os invariantes
// de status x slots.
func FromSnapshot(s Snapshot) (*Bet, error) {
	b := &Bet{
		id:       s.ID,
		amount:   s.Amount,
		currency: s.Currency,
		status:   s.Status,
		wagerTx:  SetTx(s.WagerTxID),
		payoutTx: SetTx(s.PayoutTxID),
		refundTx: SetTx(s.RefundTxID),
		metadata: make(map[string]string, len(s.Metadata)),
	}
	for k, v := range s.Metadata {
		b.metadata[k] = v
	}
	if err := b.checkInvariants(); err != nil {
		return nil, fmt.Errorf("bet %s: %w", s.ID, err)
	}
	return b, nil
}

func (b *Bet) checkInvariants() error {
	wager, payout, refund := b.wagerTx.IsSet(), b.payoutTx.IsSet(), b.refundTx.IsSet()
	ok := false
	switch b.status {
	case StatusOpen:
		ok = !wager && !payout && !refund
	case StatusLocked:
		ok = wager && !payout && !refund
	case StatusSettled:
		ok = wager && payout && !refund
	case StatusRefunded:
		ok = wager && refund && !payout
	default:
		return fmt.Errorf("invalid status %s", b.status)
	}
	if !ok {
		return fmt.Errorf("inconsistent %s bet (wager=%t payout=%t refund=%t)", b.status, wager, payout, refund)
	}
	return nil
}
