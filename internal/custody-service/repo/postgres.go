package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/radieske/custodial-bet-settlement/internal/payments"
)

var ErrNotFound = errors.New("not found")

const (
	KindCharge = "charge"
	KindPayout = "payout"
	KindRefund = "refund"
)

// Transaction é uma linha de custody_transactions
type Transaction struct {
	ID          string
	Kind        string
	Amount      decimal.NullDecimal
	Currency    string
	Reference   string
	Destination string
	SourceTxID  string
	CreatedAt   time.Time
}

// txRow espelha as colunas anuláveis da tabela
type txRow struct {
	ID          string              `db:"id"`
	Kind        string              `db:"kind"`
	Amount      decimal.NullDecimal `db:"amount"`
	Currency    sql.NullString      `db:"currency"`
	Reference   sql.NullString      `db:"reference"`
	Destination sql.NullString      `db:"destination"`
	SourceTxID  sql.NullString      `db:"source_tx_id"`
	CreatedAt   time.Time           `db:"created_at"`
}

func (r txRow) transaction() Transaction {
	return Transaction{
		ID:          r.ID,
		Kind:        r.Kind,
		Amount:      r.Amount,
		Currency:    r.Currency.String,
		Reference:   r.Reference.String,
		Destination: r.Destination.String,
		SourceTxID:  r.SourceTxID.String,
		CreatedAt:   r.CreatedAt,
	}
}

// Postgres registra as transações do custodiante simulado.
// Não há saldo: só o registro das operações e seus ids.
type Postgres struct{ db *sqlx.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: sqlx.NewDb(db, "postgres")} }

// Charge cria a cobrança de uma referência (betId).
// Idempotente: a mesma referência devolve a cobrança existente com replay=true
func (p *Postgres) Charge(ctx context.Context, amount decimal.Decimal, currency, reference string) (txID string, replay bool, err error) {
	id := payments.ChargeID(reference)
	err = p.db.QueryRowContext(ctx, `
		INSERT INTO custody_transactions(id, kind, amount, currency, reference)
		VALUES($1,'charge',$2,$3,$4)
		ON CONFLICT (reference) WHERE kind = 'charge' DO NOTHING
		RETURNING id`, id, amount, currency, reference).Scan(&txID)
	if err == nil {
		return txID, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", false, fmt.Errorf("insert charge: %w", err)
	}

	// conflito: a cobrança já existia
	if err = p.db.QueryRowContext(ctx,
		`SELECT id FROM custody_transactions WHERE kind='charge' AND reference=$1`, reference).Scan(&txID); err != nil {
		return "", false, fmt.Errorf("select charge: %w", err)
	}
	return txID, true, nil
}

// Payout registra um pagamento; cada chamada gera um id novo
func (p *Postgres) Payout(ctx context.Context, amount decimal.Decimal, currency, destination string) (string, error) {
	id := payments.PayoutID(destination)
	if _, err := p.db.ExecContext(ctx, `
		INSERT INTO custody_transactions(id, kind, amount, currency, destination)
		VALUES($1,'payout',$2,$3,$4)`, id, amount, currency, destination); err != nil {
		return "", fmt.Errorf("insert payout: %w", err)
	}
	return id, nil
}

// Refund estorna uma cobrança existente.
// Idempotente: um segundo estorno da mesma cobrança devolve o primeiro
func (p *Postgres) Refund(ctx context.Context, sourceTxID string) (txID string, replay bool, err error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", false, err
	}
	defer tx.Rollback()

	// Trava a cobrança original
	var charge struct {
		Amount   decimal.Decimal `db:"amount"`
		Currency string          `db:"currency"`
	}
	err = tx.GetContext(ctx, &charge, `
		SELECT amount, currency FROM custody_transactions
		WHERE id=$1 AND kind='charge'
		FOR UPDATE`, sourceTxID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, ErrNotFound
	}
	if err != nil {
		return "", false, fmt.Errorf("select charge: %w", err)
	}

	var existing string
	err = tx.GetContext(ctx, &existing,
		`SELECT id FROM custody_transactions WHERE kind='refund' AND source_tx_id=$1`, sourceTxID)
	if err == nil {
		return existing, true, nil // já estornada
	} else if !errors.Is(err, sql.ErrNoRows) {
		return "", false, fmt.Errorf("select refund: %w", err)
	}

	txID = payments.RefundID(sourceTxID)
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO custody_transactions(id, kind, amount, currency, source_tx_id)
		VALUES($1,'refund',$2,$3,$4)`, txID, charge.Amount, charge.Currency, sourceTxID); err != nil {
		return "", false, fmt.Errorf("insert refund: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return "", false, err
	}
	return txID, false, nil
}

// Get busca uma transação pelo id
func (p *Postgres) Get(ctx context.Context, txID string) (Transaction, error) {
	var r txRow
	err := p.db.GetContext(ctx, &r, `
		SELECT id, kind, amount, currency, reference, destination, source_tx_id, created_at
		FROM custody_transactions WHERE id=$1`, txID)
	if errors.Is(err, sql.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("select transaction: %w", err)
	}
	return r.transaction(), nil
}

// ListByReference devolve a cobrança de uma referência e o estorno dela, se houver
func (p *Postgres) ListByReference(ctx context.Context, reference string) ([]Transaction, error) {
	var rows []txRow
	if err := p.db.SelectContext(ctx, &rows, `
		SELECT t.id, t.kind, t.amount, t.currency, t.reference, t.destination, t.source_tx_id, t.created_at
		FROM custody_transactions t
		WHERE (t.kind='charge' AND t.reference=$1)
		   OR (t.kind='refund' AND t.source_tx_id IN (
		        SELECT id FROM custody_transactions WHERE kind='charge' AND reference=$1))
		ORDER BY t.created_at`, reference); err != nil {
		return nil, fmt.Errorf("select by reference: %w", err)
	}
	out := make([]Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.transaction())
	}
	return out, nil
}
