package bet

import "fmt"

// Status é o estado autoritativo da aposta.
type Status uint8

const (
	StatusOpen Status = iota
	StatusLocked
	StatusSettled
	StatusRefunded
)

var statusNames = [...]string{
	StatusOpen:     "open",
	StatusLocked:   "locked",
	StatusSettled:  "settled",
	StatusRefunded: "refunded",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// ParseStatus converte o valor persistido/serializado ("open", "locked", ...)
func ParseStatus(v string) (Status, error) {
	for i, name := range statusNames {
		if name == v {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("unknown bet status %q", v)
}

// Terminal indica que a aposta não aceita mais mutações.
func (s Status) Terminal() bool {
	return s == StatusSettled || s == StatusRefunded
}

// CanTransitionTo aplica o fluxo Open -> Locked -> {Settled | Refunded}.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusOpen:
		return next == StatusLocked
	case StatusLocked:
		return next == StatusSettled || next == StatusRefunded
	case StatusSettled, StatusRefunded:
		return false
	}
	return false
}

func (s Status) MarshalText() ([]byte, error) {
	if int(s) >= len(statusNames) {
		return nil, fmt.Errorf("invalid bet status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Action identifica o tipo de liquidação validada em ValidateSettlement.
type Action string

const (
	ActionPayout Action = "payout"
	ActionRefund Action = "refund"
)

// ParseAction aceita apenas payout ou refund.
func ParseAction(v string) (Action, error) {
	switch a := Action(v); a {
	case ActionPayout, ActionRefund:
		return a, nil
	}
	return "", fmt.Errorf("%w: got %q", ErrInvalidAction, v)
}
