package dto

import "github.com/radieske/custodial-bet-settlement/internal/bet"

type BetResponse = bet.Snapshot

type ListResponse struct {
	Bets []BetResponse `json:"bets"`
}

type SettlementResponse struct {
	BetID  string     `json:"betId"`
	Status bet.Status `json:"status"`
	TxID   string     `json:"txId"`
}

type ValidateResponse struct {
	BetID  string `json:"betId"`
	Action string `json:"action"`
	TxID   string `json:"txId"`
	Valid  bool   `json:"valid"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
