// Package lifecycle converte apostas de/para o contrato público de eventos.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/custodial-bet-settlement/internal/bet"
	"github.com/radieske/custodial-bet-settlement/pkg/contracts/events"
)

// Event monta o evento de uma transição já gravada
func Event(eventType, txID string, s bet.Snapshot) events.BetLifecycle {
	return events.BetLifecycle{
		EventType: eventType,
		TxID:      txID,
		Bet:       ToEvent(s),
		Ts:        time.Now().UTC(),
	}
}

func ToEvent(s bet.Snapshot) events.BetSnapshot {
	return events.BetSnapshot{
		BetID:      s.ID,
		Amount:     s.Amount.String(),
		Currency:   s.Currency,
		Status:     s.Status.String(),
		WagerTxID:  s.WagerTxID,
		PayoutTxID: s.PayoutTxID,
		RefundTxID: s.RefundTxID,
		Metadata:   s.Metadata,
	}
}

// FromEvent valida status e valor; os invariantes ficam com bet.FromSnapshot
func FromEvent(e events.BetSnapshot) (bet.Snapshot, error) {
	st, err := bet.ParseStatus(e.Status)
	if err != nil {
		return bet.Snapshot{}, fmt.Errorf("bet %s: %w", e.BetID, err)
	}
	amount, err := decimal.NewFromString(e.Amount)
	if err != nil {
		return bet.Snapshot{}, fmt.Errorf("bet %s: amount %q: %w", e.BetID, e.Amount, err)
	}
	return bet.Snapshot{
		ID:         e.BetID,
		Amount:     amount,
		Currency:   e.Currency,
		Status:     st,
		WagerTxID:  e.WagerTxID,
		PayoutTxID: e.PayoutTxID,
		RefundTxID: e.RefundTxID,
		Metadata:   e.Metadata,
	}, nil
}
