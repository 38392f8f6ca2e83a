package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Entry é uma linha de bet_audit
type Entry struct {
	BetID     string
	EventType string
	TxID      string
	Status    string
	Payload   []byte
	Ts        time.Time
}

// Postgres persiste a trilha de auditoria das transições de apostas
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Insert grava o evento; reentregas do mesmo (bet_id, event_type) são ignoradas
func (p *Postgres) Insert(ctx context.Context, e Entry) (inserted bool, err error) {
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO bet_audit (bet_id, event_type, tx_id, status, payload, event_ts, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW())
		ON CONFLICT (bet_id, event_type) DO NOTHING`,
		e.BetID, e.EventType, e.TxID, e.Status, string(e.Payload), e.Ts,
	)
	if err != nil {
		return false, fmt.Errorf("insert audit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert audit: %w", err)
	}
	return n > 0, nil
}
