package repo

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/custodial-bet-settlement/internal/bet"
)

// row é o formato da tabela bets no Postgres.
// metadata vai como texto: lib/pq manda []byte como bytea, que o jsonb recusa.
type row struct {
	ID         string          `db:"id"`
	Amount     decimal.Decimal `db:"amount"`
	Currency   string          `db:"currency"`
	Status     string          `db:"status"`
	WagerTxID  sql.NullString  `db:"wager_tx_id"`
	PayoutTxID sql.NullString  `db:"payout_tx_id"`
	RefundTxID sql.NullString  `db:"refund_tx_id"`
	Metadata   string          `db:"metadata"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

func toRow(s bet.Snapshot) (row, error) {
	md, err := json.Marshal(s.Metadata)
	if err != nil {
		return row{}, fmt.Errorf("encode metadata: %w", err)
	}
	if s.Metadata == nil {
		md = []byte("{}")
	}
	return row{
		ID:         s.ID,
		Amount:     s.Amount,
		Currency:   s.Currency,
		Status:     s.Status.String(),
		WagerTxID:  nullable(s.WagerTxID),
		PayoutTxID: nullable(s.PayoutTxID),
		RefundTxID: nullable(s.RefundTxID),
		Metadata:   string(md),
	}, nil
}

func (r row) snapshot() (bet.Snapshot, error) {
	st, err := bet.ParseStatus(r.Status)
	if err != nil {
		return bet.Snapshot{}, err
	}
	md := map[string]string{}
	if r.Metadata != "" {
		if err := json.Unmarshal([]byte(r.Metadata), &md); err != nil {
			return bet.Snapshot{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return bet.Snapshot{
		ID:         r.ID,
		Amount:     r.Amount,
		Currency:   r.Currency,
		Status:     st,
		WagerTxID:  r.WagerTxID.String,
		PayoutTxID: r.PayoutTxID.String,
		RefundTxID: r.RefundTxID.String,
		Metadata:   md,
	}, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
