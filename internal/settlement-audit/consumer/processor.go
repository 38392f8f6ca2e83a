package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/custodial-bet-settlement/internal/bet"
	"github.com/radieske/custodial-bet-settlement/internal/lifecycle"
	"github.com/radieske/custodial-bet-settlement/internal/settlement-audit/repo"
	"github.com/radieske/custodial-bet-settlement/internal/shared/kafka"
	"github.com/radieske/custodial-bet-settlement/internal/shared/metrics"
	"github.com/radieske/custodial-bet-settlement/pkg/contracts/events"
)

// ErrRejected marca eventos inválidos que vão para a DLQ
var ErrRejected = errors.New("lifecycle event rejected")

// Source entrega mensagens e só avança o offset quando Commit é chamado
type Source interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, m kafka.Message) error
}

// DeadLetter recebe mensagens que não passaram na validação
type DeadLetter interface {
	Send(ctx context.Context, key string, payload []byte) error
}

type Store interface {
	Insert(ctx context.Context, e repo.Entry) (bool, error)
}

// KafkaSource adapta o *kafka.Reader compartilhado
type KafkaSource struct{ Reader *kafka.Reader }

func (s KafkaSource) Fetch(ctx context.Context) (kafka.Message, error) {
	return kafka.FetchNext(ctx, s.Reader)
}

func (s KafkaSource) Commit(ctx context.Context, m kafka.Message) error {
	return kafka.Commit(ctx, s.Reader, m)
}

// KafkaDLQ publica no tópico de DLQ
type KafkaDLQ struct{ Writer *kafka.Writer }

func (d KafkaDLQ) Send(ctx context.Context, key string, payload []byte) error {
	return kafka.WriteJSON(ctx, d.Writer, key, payload)
}

// Processor consome eventos de ciclo de vida, revalida cada um contra as regras
// da aposta e grava a trilha de auditoria
type Processor struct {
	Log     *zap.Logger
	Source  Source
	Store   Store
	DLQ     DeadLetter // opcional
	Metrics *metrics.Collectors
	Backoff time.Duration // espera inicial entre tentativas; zero usa 500ms
}

const maxBackoff = 10 * time.Second

// Run inicia o loop principal de consumo até o contexto ser cancelado.
// O offset só é confirmado depois que a mensagem foi gravada ou enviada à DLQ.
func (p *Processor) Run(ctx context.Context) error {
	for {
		msg, err := p.Source.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka fetch failed", zap.Error(err))
			if err := sleep(ctx, p.initialBackoff()); err != nil {
				return err
			}
			continue
		}

		if err := p.handleUntilDone(ctx, msg); err != nil {
			return err
		}
		if err := p.Source.Commit(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// a gravação é idempotente: uma reentrega vira "duplicate"
			p.Log.Warn("kafka commit failed", zap.ByteString("key", msg.Key), zap.Error(err))
		}
	}
}

// handleUntilDone repete Handle com backoff exponencial até dar certo ou o contexto acabar
func (p *Processor) handleUntilDone(ctx context.Context, msg kafka.Message) error {
	backoff := p.initialBackoff()
	for attempt := 1; ; attempt++ {
		err := p.Handle(ctx, msg.Key, msg.Value)
		if err == nil {
			return nil
		}
		p.Log.Error("audit event failed, retrying",
			zap.ByteString("key", msg.Key),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		if err := sleep(ctx, backoff); err != nil {
			return err
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func (p *Processor) initialBackoff() time.Duration {
	if p.Backoff > 0 {
		return p.Backoff
	}
	return 500 * time.Millisecond
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Handle processa uma mensagem. Eventos inválidos vão para a DLQ e não retornam erro;
// um erro devolvido (banco ou DLQ fora do ar) significa que a mensagem deve ser reprocessada
func (p *Processor) Handle(ctx context.Context, key, value []byte) error {
	var ev events.BetLifecycle
	if err := json.Unmarshal(value, &ev); err != nil {
		return p.deadLetter(ctx, "unknown", key, value, fmt.Errorf("%w: decode: %v", ErrRejected, err))
	}
	if err := Check(ev); err != nil {
		return p.deadLetter(ctx, ev.EventType, key, value, err)
	}

	inserted, err := p.Store.Insert(ctx, repo.Entry{
		BetID:     ev.Bet.BetID,
		EventType: ev.EventType,
		TxID:      ev.TxID,
		Status:    ev.Bet.Status,
		Payload:   value,
		Ts:        ev.Ts,
	})
	if err != nil {
		p.Metrics.AuditEvents.WithLabelValues(ev.EventType, "error").Inc()
		return err
	}
	result := "stored"
	if !inserted {
		result = "duplicate"
	}
	p.Metrics.AuditEvents.WithLabelValues(ev.EventType, result).Inc()
	p.Log.Debug("audit event stored", zap.String("bet_id", ev.Bet.BetID), zap.String("event", ev.EventType), zap.String("result", result))
	return nil
}

func (p *Processor) deadLetter(ctx context.Context, eventType string, key, value []byte, reason error) error {
	p.Metrics.AuditEvents.WithLabelValues(eventType, "dlq").Inc()
	p.Log.Warn("lifecycle event rejected", zap.ByteString("key", key), zap.Error(reason))
	if p.DLQ == nil {
		return nil
	}
	if err := p.DLQ.Send(ctx, string(key), value); err != nil {
		return fmt.Errorf("dlq: %w", err)
	}
	return nil
}

// Check refaz as validações da aposta sobre o snapshot publicado:
// invariantes de status x slots e o id da transação do evento
func Check(ev events.BetLifecycle) error {
	snap, err := lifecycle.FromEvent(ev.Bet)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	b, err := bet.FromSnapshot(snap)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}

	switch ev.EventType {
	case events.BetWagered:
		if b.Status() != bet.StatusLocked || b.WagerTx().String() != ev.TxID {
			return fmt.Errorf("%w: wager event does not match locked bet %s", ErrRejected, b.ID())
		}
	case events.BetSettled:
		if err := b.ValidateSettlement(bet.ActionPayout, ev.TxID); err != nil {
			return fmt.Errorf("%w: %v", ErrRejected, err)
		}
	case events.BetRefunded:
		if err := b.ValidateSettlement(bet.ActionRefund, ev.TxID); err != nil {
			return fmt.Errorf("%w: %v", ErrRejected, err)
		}
	default:
		return fmt.Errorf("%w: unknown event type %q", ErrRejected, ev.EventType)
	}
	return nil
}
