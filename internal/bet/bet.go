package bet

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Bet representa uma aposta única e seu ciclo de liquidação contra o custodiante.
// Só é mutada pelos métodos Record*; não possui lock interno, o chamador deve
// serializar o acesso por aposta.
type Bet struct {
	id       string
	amount   decimal.Decimal
	currency string
	status   Status

	wagerTx  TxSlot
	payoutTx TxSlot
	refundTx TxSlot

	metadata map[string]string
}

// New cria uma aposta em Open com todos os slots vazios.
func New(id string, amount decimal.Decimal, currency string) *Bet {
	return &Bet{
		id:       id,
		amount:   amount,
		currency: currency,
		status:   StatusOpen,
		metadata: make(map[string]string),
	}
}

func (b *Bet) ID() string { return b.id }
func (b *Bet) Amount() decimal.Decimal { return b.amount }
func (b *Bet) Currency() string { return b.currency }
func (b *Bet) Status() Status { return b.status }
func (b *Bet) WagerTx() TxSlot { return b.wagerTx }
func (b *Bet) PayoutTx() TxSlot { return b.payoutTx }
func (b *Bet) RefundTx() TxSlot { return b.refundTx }
func (b *Bet) Metadata() map[string]string { return b.metadata }

// RecordWagerTx grava a cobrança da aposta e trava os fundos (Open -> Locked).
func (b *Bet) RecordWagerTx(txID string) error {
	return b.record(&b.wagerTx, "wager", StatusLocked, txID)
}

// RecordPayoutTx grava o pagamento ao vencedor (Locked -> Settled).
func (b *Bet) RecordPayoutTx(txID string) error {
	return b.record(&b.payoutTx, "payout", StatusSettled, txID)
}

// RecordRefundTx grava o estorno da cobrança (Locked -> Refunded).
func (b *Bet) RecordRefundTx(txID string) error {
	return b.record(&b.refundTx, "refund", StatusRefunded, txID)
}

// record verifica tudo antes de mutar: slot já gravado, transição inválida, id vazio.
func (b *Bet) record(slot *TxSlot, kind string, next Status, txID string) error {
	if slot.IsSet() {
		return fmt.Errorf("%w: bet %s already has %s transaction %s", ErrDuplicateTransaction, b.id, kind, slot)
	}
	if !b.status.CanTransitionTo(next) {
		return fmt.Errorf("%w: bet %s cannot move from %s to %s", ErrPrecondition, b.id, b.status, next)
	}
	if err := slot.Set(txID); err != nil {
		return fmt.Errorf("record %s transaction for bet %s: %w", kind, b.id, err)
	}
	b.status = next
	return nil
}

// ValidateSettlement confere se txID é o id gravado para a ação. Não altera a aposta.
func (b *Bet) ValidateSettlement(action Action, txID string) error {
	var expected TxSlot
	switch action {
	case ActionPayout:
		expected = b.payoutTx
	case ActionRefund:
		expected = b.refundTx
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidAction, string(action))
	}
	if !b.wagerTx.IsSet() {
		return fmt.Errorf("%w: bet %s", ErrUnsettledWager, b.id)
	}
	if !expected.matches(txID) {
		return fmt.Errorf("%w: bet %s %s expected %q got %q", ErrSettlementMismatch, b.id, action, expected, txID)
	}
	return nil
}

// Clone devolve uma cópia independente (metadata incluída).
func (b *Bet) Clone() *Bet {
	c := *b
	c.metadata = make(map[string]string, len(b.metadata))
	for k, v := range b.metadata {
		c.metadata[k] = v
	}
	return &c
}
