package bet

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBet() *Bet {
	return New("b1", decimal.NewFromInt(100), "USD")
}

func TestNewBetIsOpen(t *testing.T) {
	b := newBet()

	assert.Equal(t, StatusOpen, b.Status())
	assert.False(t, b.WagerTx().IsSet())
	assert.False(t, b.PayoutTx().IsSet())
	assert.False(t, b.RefundTx().IsSet())
	assert.NotNil(t, b.Metadata())
}

func TestRecordWagerTx(t *testing.T) {
	b := newBet()

	require.NoError(t, b.RecordWagerTx("chg_b1_abc"))
	assert.Equal(t, StatusLocked, b.Status())
	id, ok := b.WagerTx().Get()
	assert.True(t, ok)
	assert.Equal(t, "chg_b1_abc", id)

	err := b.RecordWagerTx("chg_b1_other")
	require.ErrorIs(t, err, ErrDuplicateTransaction)
	assert.Equal(t, "chg_b1_abc", b.WagerTx().String())
	assert.Equal(t, StatusLocked, b.Status())
}

func TestRecordPayoutAndRefundAreExclusive(t *testing.T) {
	b := newBet()
	require.NoError(t, b.RecordWagerTx("chg"))
	require.NoError(t, b.RecordPayoutTx("payout_1"))
	assert.Equal(t, StatusSettled, b.Status())

	require.ErrorIs(t, b.RecordPayoutTx("payout_2"), ErrDuplicateTransaction)
	require.ErrorIs(t, b.RecordRefundTx("refund_1"), ErrPrecondition)
	assert.Equal(t, StatusSettled, b.Status())
	assert.False(t, b.RefundTx().IsSet())
	assert.Equal(t, "payout_1", b.PayoutTx().String())

	r := newBet()
	require.NoError(t, r.RecordWagerTx("chg"))
	require.NoError(t, r.RecordRefundTx("refund_1"))
	assert.Equal(t, StatusRefunded, r.Status())
	require.ErrorIs(t, r.RecordRefundTx("refund_2"), ErrDuplicateTransaction)
	require.ErrorIs(t, r.RecordPayoutTx("payout_1"), ErrPrecondition)
	assert.False(t, r.PayoutTx().IsSet())
}

func TestSettlementCannotSkipLocked(t *testing.T) {
	b := newBet()

	require.ErrorIs(t, b.RecordPayoutTx("payout_1"), ErrPrecondition)
	require.ErrorIs(t, b.RecordRefundTx("refund_1"), ErrPrecondition)
	assert.Equal(t, StatusOpen, b.Status())
	assert.False(t, b.PayoutTx().IsSet())
	assert.False(t, b.RefundTx().IsSet())
}

func TestRecordRejectsEmptyID(t *testing.T) {
	b := newBet()

	require.ErrorIs(t, b.RecordWagerTx(""), ErrEmptyTransactionID)
	assert.Equal(t, StatusOpen, b.Status())
	assert.False(t, b.WagerTx().IsSet())
}

func TestValidateSettlement(t *testing.T) {
	b := newBet()

	require.ErrorIs(t, b.ValidateSettlement(ActionPayout, "x"), ErrUnsettledWager)
	require.ErrorIs(t, b.ValidateSettlement(Action("cashout"), "x"), ErrInvalidAction)

	require.NoError(t, b.RecordWagerTx("chg_b1_abc"))
	// slot ainda vazio: conta como divergência
	require.ErrorIs(t, b.ValidateSettlement(ActionPayout, ""), ErrSettlementMismatch)
	require.ErrorIs(t, b.ValidateSettlement(ActionPayout, "payout_addr1_xyz"), ErrSettlementMismatch)

	require.NoError(t, b.RecordPayoutTx("payout_addr1_xyz"))
	before := b.Snapshot()
	for i := 0; i < 3; i++ {
		require.NoError(t, b.ValidateSettlement(ActionPayout, "payout_addr1_xyz"))
		require.ErrorIs(t, b.ValidateSettlement(ActionPayout, "wrong"), ErrSettlementMismatch)
		require.ErrorIs(t, b.ValidateSettlement(ActionRefund, "payout_addr1_xyz"), ErrSettlementMismatch)
	}
	assert.Equal(t, before, b.Snapshot())
}

func TestInvalidActionCheckedBeforeWager(t *testing.T) {
	b := newBet()
	require.ErrorIs(t, b.ValidateSettlement("", "x"), ErrInvalidAction)
}

func TestStatusTransitions(t *testing.T) {
	all := []Status{StatusOpen, StatusLocked, StatusSettled, StatusRefunded}
	allowed := map[[2]Status]bool{
		{StatusOpen, StatusLocked}:     true,
		{StatusLocked, StatusSettled}:  true,
		{StatusLocked, StatusRefunded}: true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]Status{from, to}], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	assert.True(t, StatusSettled.Terminal())
	assert.True(t, StatusRefunded.Terminal())
	assert.False(t, StatusLocked.Terminal())
}

func TestParseStatusAndAction(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"open", StatusOpen},
		{"locked", StatusLocked},
		{"settled", StatusSettled},
		{"refunded", StatusRefunded},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.in, got.String())
	}
	_, err := ParseStatus("active")
	assert.Error(t, err)

	a, err := ParseAction("refund")
	require.NoError(t, err)
	assert.Equal(t, ActionRefund, a)
	_, err = ParseAction("void")
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestCloneIsIndependent(t *testing.T) {
	b := newBet()
	b.Metadata()["event"] = "final"
	c := b.Clone()

	require.NoError(t, c.RecordWagerTx("chg"))
	c.Metadata()["event"] = "semi"

	assert.Equal(t, StatusOpen, b.Status())
	assert.False(t, b.WagerTx().IsSet())
	assert.Equal(t, "final", b.Metadata()["event"])
}

func TestSnapshotRoundTrip(t *testing.T) {
	b := newBet()
	b.Metadata()["creator"] = "agent:central"
	require.NoError(t, b.RecordWagerTx("chg_b1_abc"))
	require.NoError(t, b.RecordRefundTx("refund_chg_b1_abc_qqq"))

	raw, err := json.Marshal(b.Snapshot())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"status":"refunded"`)

	var s Snapshot
	require.NoError(t, json.Unmarshal(raw, &s))
	r, err := FromSnapshot(s)
	require.NoError(t, err)
	assert.Equal(t, b.Snapshot(), r.Snapshot())
	assert.True(t, r.Amount().Equal(decimal.NewFromInt(100)))

	// a aposta reidratada continua protegida
	require.ErrorIs(t, r.RecordRefundTx("again"), ErrDuplicateTransaction)
}

func TestFromSnapshotRejectsBrokenInvariants(t *testing.T) {
	tests := []struct {
		name string
		s    Snapshot
	}{
		{"open with wager", Snapshot{ID: "x", Status: StatusOpen, WagerTxID: "chg"}},
		{"locked without wager", Snapshot{ID: "x", Status: StatusLocked}},
		{"settled with refund", Snapshot{ID: "x", Status: StatusSettled, WagerTxID: "chg", PayoutTxID: "p", RefundTxID: "r"}},
		{"settled without payout", Snapshot{ID: "x", Status: StatusSettled, WagerTxID: "chg"}},
		{"refunded with payout", Snapshot{ID: "x", Status: StatusRefunded, WagerTxID: "chg", PayoutTxID: "p", RefundTxID: "r"}},
		{"unknown status", Snapshot{ID: "x", Status: Status(9)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromSnapshot(tt.s)
			assert.Error(t, err)
		})
	}
}
