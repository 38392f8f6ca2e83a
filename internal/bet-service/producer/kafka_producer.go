package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/radieske/custodial-bet-settlement/internal/shared/kafka"
	"github.com/radieske/custodial-bet-settlement/pkg/contracts/events"
)

type KafkaPublisher struct {
	Writer *kafka.Writer
	Topic  string
}

func NewKafkaPublisher(w *kafka.Writer, topic string) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Topic: topic}
}

// PublishLifecycle usa o betID como chave para manter a ordem por aposta
func (p *KafkaPublisher) PublishLifecycle(ctx context.Context, e events.BetLifecycle) error {
	if e.Ts.IsZero() {
		e.Ts = time.Now().UTC()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.EventType, err)
	}
	return kafka.WriteJSON(ctx, p.Writer, e.Bet.BetID, b)
}
