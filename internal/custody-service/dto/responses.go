package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type TxResponse struct {
	TxID   string `json:"tx_id"`
	Replay bool   `json:"replay,omitempty"` // true quando a mesma operação já existia
}

type TransactionResponse struct {
	TxID        string           `json:"tx_id"`
	Kind        string           `json:"kind"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Currency    string           `json:"currency,omitempty"`
	Reference   string           `json:"reference,omitempty"`
	Destination string           `json:"destination,omitempty"`
	SourceTxID  string           `json:"source_tx_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}
