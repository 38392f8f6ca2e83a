package bet

import "errors"

// Erros de validação do ciclo de vida da aposta. Nenhum é transitório:
// quem recebe um deles deve assumir que a aposta ficou exatamente como estava.
var (
	ErrPrecondition         = errors.New("precondition failed")
	ErrDuplicateTransaction = errors.New("transaction already recorded")
	ErrInvalidAction        = errors.New("settlement action must be payout or refund")
	ErrUnsettledWager       = errors.New("cannot settle without a recorded wager transaction")
	ErrSettlementMismatch   = errors.New("settlement transaction id does not match stored value")
	ErrEmptyTransactionID   = errors.New("empty transaction id")
)
