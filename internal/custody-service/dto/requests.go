package dto

import "github.com/shopspring/decimal"

type ChargeRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Reference string          `json:"reference"` // ex: betId; idempotência por referência
}

type PayoutRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Destination string          `json:"destination"`
}

type RefundRequest struct {
	SourceTxID string `json:"source_tx_id"` // id da cobrança original
}
