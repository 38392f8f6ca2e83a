package payments

import (
	"context"

	"github.com/shopspring/decimal"
)

// MockCustodial simula o custodiante em memória: não move fundos, só gera ids únicos.
type MockCustodial struct {
	Name string
}

func NewMockCustodial() *MockCustodial {
	return &MockCustodial{Name: "MockCustodialProvider"}
}

func (m *MockCustodial) CreateCharge(_ context.Context, _ decimal.Decimal, _ string, reference string) (string, error) {
	return ChargeID(reference), nil
}

func (m *MockCustodial) SendPayout(_ context.Context, _ decimal.Decimal, _ string, destination string) (string, error) {
	return PayoutID(destination), nil
}

func (m *MockCustodial) RefundCharge(_ context.Context, chargeID string) (string, error) {
	return RefundID(chargeID), nil
}
