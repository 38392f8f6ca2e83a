package settlement

import (
	"context"

	"github.com/shopspring/decimal"
)

// Provider é o custodiante que movimenta os fundos. Cada chamada devolve um id de
// transação único e não vazio; retentativas, se existirem, são problema dele.
type Provider interface {
	CreateCharge(ctx context.Context, amount decimal.Decimal, currency, reference string) (string, error)
	SendPayout(ctx context.Context, amount decimal.Decimal, currency, destination string) (string, error)
	RefundCharge(ctx context.Context, sourceTxID string) (string, error)
}
