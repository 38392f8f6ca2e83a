package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/radieske/custodial-bet-settlement/internal/bet"
)

var (
	ErrNotFound   = errors.New("bet not found")
	ErrStaleWrite = errors.New("bet changed since it was loaded")
)

const columns = `id, amount, currency, status, wager_tx_id, payout_tx_id, refund_tx_id, metadata, created_at, updated_at`

// Postgres implementa operações de persistência de apostas em banco Postgres
type Postgres struct{ db *sqlx.DB }

// NewPostgres retorna uma instância do repositório de apostas
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: sqlx.NewDb(db, "postgres")} }

// Create insere uma nova aposta (status open)
func (p *Postgres) Create(ctx context.Context, s bet.Snapshot) error {
	r, err := toRow(s)
	if err != nil {
		return err
	}
	_, err = p.db.NamedExecContext(ctx, `
		INSERT INTO bets (id, amount, currency, status, wager_tx_id, payout_tx_id, refund_tx_id, metadata, created_at, updated_at)
		VALUES (:id, :amount, :currency, :status, :wager_tx_id, :payout_tx_id, :refund_tx_id, :metadata, NOW(), NOW())`, r)
	if err != nil {
		return fmt.Errorf("insert bet: %w", err)
	}
	return nil
}

// Get carrega o snapshot atual de uma aposta pelo betID
func (p *Postgres) Get(ctx context.Context, betID string) (bet.Snapshot, error) {
	var r row
	err := p.db.GetContext(ctx, &r, `SELECT `+columns+` FROM bets WHERE id=$1`, betID)
	if errors.Is(err, sql.ErrNoRows) {
		return bet.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return bet.Snapshot{}, fmt.Errorf("select bet: %w", err)
	}
	return r.snapshot()
}

// List devolve as apostas abertas, depois as travadas, depois as encerradas;
// dentro de cada grupo, da mais antiga para a mais nova
func (p *Postgres) List(ctx context.Context, limit int) ([]bet.Snapshot, error) {
	var rows []row
	if err := p.db.SelectContext(ctx, &rows, `
		SELECT `+columns+` FROM bets
		ORDER BY
			CASE status
				WHEN 'open' THEN 0
				WHEN 'locked' THEN 1
				ELSE 2
			END,
			created_at ASC
		LIMIT $1`, limit); err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}
	out := make([]bet.Snapshot, 0, len(rows))
	for _, r := range rows {
		s, err := r.snapshot()
		if err != nil {
			return nil, fmt.Errorf("bet %s: %w", r.ID, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// Update grava o novo estado somente se o status no banco ainda for prevStatus
// e os slots de transação já gravados não mudarem (COALESCE preserva o valor antigo).
func (p *Postgres) Update(ctx context.Context, s bet.Snapshot, prevStatus bet.Status) error {
	r, err := toRow(s)
	if err != nil {
		return err
	}
	res, err := p.db.ExecContext(ctx, `
		UPDATE bets SET
			status = $2,
			wager_tx_id = COALESCE(wager_tx_id, $3),
			payout_tx_id = COALESCE(payout_tx_id, $4),
			refund_tx_id = COALESCE(refund_tx_id, $5),
			metadata = $6,
			updated_at = NOW()
		WHERE id = $1 AND status = $7`,
		r.ID, r.Status, r.WagerTxID, r.PayoutTxID, r.RefundTxID, r.Metadata, prevStatus.String(),
	)
	if err != nil {
		return fmt.Errorf("update bet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update bet: %w", err)
	}
	if n == 0 {
		return ErrStaleWrite
	}
	return nil
}
