package dto

import "github.com/shopspring/decimal"

type CreateBetRequest struct {
	Amount   decimal.Decimal   `json:"amount"`
	Currency string            `json:"currency,omitempty"` // default USD
	Metadata map[string]string `json:"metadata,omitempty"`
}

type PayoutRequest struct {
	Destination string `json:"destination"`
}

type ValidateRequest struct {
	Action string `json:"action"` // "payout" | "refund"
	TxID   string `json:"txId"`
}
