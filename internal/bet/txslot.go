package bet

// TxSlot guarda um id de transação que só pode ser gravado uma vez.
// O valor zero é o slot vazio.
type TxSlot struct {
	id  string
	set bool
}

// SetTx cria um slot já preenchido (usado ao reidratar de um snapshot).
func SetTx(id string) TxSlot { return TxSlot{id: id, set: id != ""} }

// Get devolve o id e se o slot está preenchido.
func (s TxSlot) Get() (string, bool) { return s.id, s.set }

func (s TxSlot) IsSet() bool { return s.set }

// String devolve o id ou "" quando vazio.
func (s TxSlot) String() string { return s.id }

// Set grava o id. Falha se o slot já estiver preenchido ou se o id for vazio.
func (s *TxSlot) Set(id string) error {
	if s.set {
		return ErrDuplicateTransaction
	}
	if id == "" {
		return ErrEmptyTransactionID
	}
	s.id, s.set = id, true
	return nil
}

// matches compara o slot com o id apresentado; slot vazio nunca confere.
func (s TxSlot) matches(id string) bool {
	return s.set && s.id == id
}
