package custody

import "github.com/shopspring/decimal"

// Payloads do custody-service (ver internal/custody-service/dto).

type chargeRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Reference string          `json:"reference"`
}

type payoutRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Destination string          `json:"destination"`
}

type refundRequest struct {
	SourceTxID string `json:"source_tx_id"`
}

type txResponse struct {
	TxID string `json:"tx_id"`
}
