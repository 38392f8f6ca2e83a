package settlement

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/custodial-bet-settlement/internal/bet"
)

// ErrProvider envolve qualquer falha do custodiante; a aposta não é alterada.
var ErrProvider = errors.New("payment provider failed")

// Service orquestra aposta, liquidação e estorno contra o Provider.
// Não faz lock: o chamador garante um único acesso por aposta.
type Service struct {
	log      *zap.Logger
	provider Provider
}

// NewService cria o orquestrador. log pode ser nil.
func NewService(log *zap.Logger, p Provider) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{log: log, provider: p}
}

// InitWager cobra o valor da aposta e trava os fundos.
func (s *Service) InitWager(ctx context.Context, b *bet.Bet) (string, error) {
	if b.Status() != bet.StatusOpen {
		return "", precondition(b, "bet not open for wagers")
	}

	txID, err := s.provider.CreateCharge(ctx, b.Amount(), b.Currency(), b.ID())
	if err != nil {
		return "", s.providerFailed(b, "charge", err)
	}

	if err := s.apply(b, func(w *bet.Bet) error {
		return w.RecordWagerTx(txID)
	}); err != nil {
		return "", err
	}

	s.log.Info("wager locked", zap.String("bet_id", b.ID()), zap.String("tx_id", txID))
	return txID, nil
}

// ReleasePayout paga o vencedor e confere o id gravado.
func (s *Service) ReleasePayout(ctx context.Context, b *bet.Bet, destination string) (string, error) {
	if b.Status() != bet.StatusLocked {
		return "", precondition(b, "bet not eligible for payout")
	}

	txID, err := s.provider.SendPayout(ctx, b.Amount(), b.Currency(), destination)
	if err != nil {
		return "", s.providerFailed(b, "payout", err)
	}

	if err := s.apply(b, func(w *bet.Bet) error {
		if err := w.RecordPayoutTx(txID); err != nil {
			return err
		}
		return w.ValidateSettlement(bet.ActionPayout, txID)
	}); err != nil {
		return "", err
	}

	s.log.Info("bet settled",
		zap.String("bet_id", b.ID()),
		zap.String("destination", destination),
		zap.String("tx_id", txID),
	)
	return txID, nil
}

// RefundWager estorna a cobrança original da aposta.
func (s *Service) RefundWager(ctx context.Context, b *bet.Bet) (string, error) {
	if b.Status() != bet.StatusLocked {
		return "", precondition(b, "bet not eligible for refund")
	}
	wagerTxID, ok := b.WagerTx().Get()
	if !ok {
		return "", precondition(b, "missing wager transaction for refund")
	}

	txID, err := s.provider.RefundCharge(ctx, wagerTxID)
	if err != nil {
		return "", s.providerFailed(b, "refund", err)
	}

	if err := s.apply(b, func(w *bet.Bet) error {
		if err := w.RecordRefundTx(txID); err != nil {
			return err
		}
		return w.ValidateSettlement(bet.ActionRefund, txID)
	}); err != nil {
		return "", err
	}

	s.log.Info("bet refunded",
		zap.String("bet_id", b.ID()),
		zap.String("wager_tx_id", wagerTxID),
		zap.String("tx_id", txID),
	)
	return txID, nil
}

// apply roda gravação + validação numa cópia e só então substitui a aposta,
// assim nenhum erro deixa estado parcial.
func (s *Service) apply(b *bet.Bet, fn func(*bet.Bet) error) error {
	work := b.Clone()
	if err := fn(work); err != nil {
		s.log.Error("settlement record rejected", zap.String("bet_id", b.ID()), zap.Error(err))
		return err
	}
	*b = *work
	return nil
}

func (s *Service) providerFailed(b *bet.Bet, op string, err error) error {
	s.log.Warn("provider call failed",
		zap.String("bet_id", b.ID()),
		zap.String("op", op),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %s for bet %s: %w", ErrProvider, op, b.ID(), err)
}

func precondition(b *bet.Bet, rule string) error {
	return fmt.Errorf("%w: %s (bet %s is %s)", bet.ErrPrecondition, rule, b.ID(), b.Status())
}
