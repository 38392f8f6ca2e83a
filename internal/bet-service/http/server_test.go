package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/radieske/custodial-bet-settlement/internal/bet"
	"github.com/radieske/custodial-bet-settlement/internal/bet-service/dto"
	"github.com/radieske/custodial-bet-settlement/internal/bet-service/lock"
	"github.com/radieske/custodial-bet-settlement/internal/bet-service/repo"
	"github.com/radieske/custodial-bet-settlement/internal/settlement"
	"github.com/radieske/custodial-bet-settlement/internal/shared/metrics"
	"github.com/radieske/custodial-bet-settlement/pkg/contracts/events"
)

type memRepo struct {
	bets  map[string]bet.Snapshot
	order []string // ordem de criação
}

func (m *memRepo) Create(_ context.Context, s bet.Snapshot) error {
	m.bets[s.ID] = s
	m.order = append(m.order, s.ID)
	return nil
}

// List reproduz o ORDER BY do Postgres: open, locked, resto; depois criação
func (m *memRepo) List(_ context.Context, limit int) ([]bet.Snapshot, error) {
	rank := func(st bet.Status) int {
		switch st {
		case bet.StatusOpen:
			return 0
		case bet.StatusLocked:
			return 1
		}
		return 2
	}
	out := []bet.Snapshot{}
	for r := 0; r <= 2; r++ {
		for _, id := range m.order {
			if s := m.bets[id]; rank(s.Status) == r && len(out) < limit {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func (m *memRepo) Get(_ context.Context, id string) (bet.Snapshot, error) {
	s, ok := m.bets[id]
	if !ok {
		return bet.Snapshot{}, repo.ErrNotFound
	}
	return s, nil
}

func (m *memRepo) Update(_ context.Context, s bet.Snapshot, prev bet.Status) error {
	cur, ok := m.bets[s.ID]
	if !ok || cur.Status != prev {
		return repo.ErrStaleWrite
	}
	m.bets[s.ID] = s
	return nil
}

type memLocker struct {
	held     map[string]bool
	released int
}

func (l *memLocker) Acquire(_ context.Context, id string) (func(context.Context) error, error) {
	if l.held[id] {
		return nil, lock.ErrBusy
	}
	l.held[id] = true
	return func(context.Context) error {
		delete(l.held, id)
		l.released++
		return nil
	}, nil
}

type memPublisher struct{ events []events.BetLifecycle }

func (p *memPublisher) PublishLifecycle(_ context.Context, e events.BetLifecycle) error {
	p.events = append(p.events, e)
	return nil
}

type fixedProvider struct{ err error }

func (p fixedProvider) CreateCharge(_ context.Context, _ decimal.Decimal, _, ref string) (string, error) {
	return "chg_" + ref + "_abc", p.err
}

func (p fixedProvider) SendPayout(_ context.Context, _ decimal.Decimal, _, dest string) (string, error) {
	return "payout_" + dest + "_xyz", p.err
}

func (p fixedProvider) RefundCharge(_ context.Context, src string) (string, error) {
	return "refund_" + src + "_qqq", p.err
}

type fixture struct {
	srv    *httptest.Server
	repo   *memRepo
	locker *memLocker
	publ   *memPublisher
}

func newFixture(t *testing.T, p settlement.Provider) *fixture {
	log := zaptest.NewLogger(t)
	f := &fixture{
		repo:   &memRepo{bets: map[string]bet.Snapshot{}},
		locker: &memLocker{held: map[string]bool{}},
		publ:   &memPublisher{},
	}
	api := NewServer(log, f.repo, f.locker, settlement.NewService(log, p), f.publ, metrics.NewCollectors())
	f.srv = httptest.NewServer(api.Router())
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) post(t *testing.T, path, body string, out any) int {
	res, err := http.Post(f.srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func (f *fixture) createBet(t *testing.T) string {
	var snap bet.Snapshot
	code := f.post(t, "/bets", `{"amount":"100","metadata":{"event":"NYC Marathon"}}`, &snap)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, bet.StatusOpen, snap.Status)
	require.Equal(t, "USD", snap.Currency)
	return snap.ID
}

func TestWagerThenPayout(t *testing.T) {
	f := newFixture(t, fixedProvider{})
	id := f.createBet(t)

	var res dto.SettlementResponse
	require.Equal(t, http.StatusOK, f.post(t, "/bets/"+id+"/wager", "", &res))
	assert.Equal(t, bet.StatusLocked, res.Status)
	assert.Equal(t, "chg_"+id+"_abc", res.TxID)

	require.Equal(t, http.StatusOK, f.post(t, "/bets/"+id+"/payout", `{"destination":"addr1"}`, &res))
	assert.Equal(t, bet.StatusSettled, res.Status)
	assert.Equal(t, "payout_addr1_xyz", res.TxID)

	stored := f.repo.bets[id]
	assert.Equal(t, bet.StatusSettled, stored.Status)
	assert.Equal(t, "payout_addr1_xyz", stored.PayoutTxID)
	assert.Equal(t, "NYC Marathon", stored.Metadata["event"])

	require.Len(t, f.publ.events, 2)
	assert.Equal(t, events.BetWagered, f.publ.events[0].EventType)
	assert.Equal(t, events.BetSettled, f.publ.events[1].EventType)
	assert.Equal(t, "payout_addr1_xyz", f.publ.events[1].Bet.PayoutTxID)
	assert.Equal(t, 2, f.locker.released)

	var v dto.ValidateResponse
	require.Equal(t, http.StatusOK, f.post(t, "/bets/"+id+"/validate", `{"action":"payout","txId":"payout_addr1_xyz"}`, &v))
	assert.True(t, v.Valid)

	var e dto.ErrorResponse
	assert.Equal(t, http.StatusConflict, f.post(t, "/bets/"+id+"/validate", `{"action":"payout","txId":"wrong"}`, &e))
	assert.Equal(t, http.StatusBadRequest, f.post(t, "/bets/"+id+"/validate", `{"action":"void","txId":"x"}`, &e))
}

func TestRefundThenPayoutConflicts(t *testing.T) {
	f := newFixture(t, fixedProvider{})
	id := f.createBet(t)
	require.Equal(t, http.StatusOK, f.post(t, "/bets/"+id+"/wager", "", nil))

	var res dto.SettlementResponse
	require.Equal(t, http.StatusOK, f.post(t, "/bets/"+id+"/refund", "", &res))
	assert.Equal(t, bet.StatusRefunded, res.Status)
	assert.Equal(t, "refund_chg_"+id+"_abc_qqq", res.TxID)

	var e dto.ErrorResponse
	assert.Equal(t, http.StatusConflict, f.post(t, "/bets/"+id+"/payout", `{"destination":"addr1"}`, &e))
	assert.Contains(t, e.Error, "bet not eligible for payout")
	assert.Equal(t, bet.StatusRefunded, f.repo.bets[id].Status)
	assert.Len(t, f.publ.events, 2)
}

func TestRejections(t *testing.T) {
	f := newFixture(t, fixedProvider{})
	id := f.createBet(t)

	var e dto.ErrorResponse
	assert.Equal(t, http.StatusConflict, f.post(t, "/bets/"+id+"/refund", "", &e))
	assert.Contains(t, e.Error, "bet not eligible for refund")

	assert.Equal(t, http.StatusBadRequest, f.post(t, "/bets/"+id+"/payout", `{}`, &e))
	assert.Equal(t, http.StatusNotFound, f.post(t, "/bets/missing/wager", "", &e))
	assert.Equal(t, http.StatusBadRequest, f.post(t, "/bets", `{"amount":"-5"}`, &e))
	assert.Equal(t, http.StatusBadRequest, f.post(t, "/bets", `{"amount":`, &e))

	f.locker.held[id] = true
	assert.Equal(t, http.StatusConflict, f.post(t, "/bets/"+id+"/wager", "", &e))
	assert.Equal(t, bet.StatusOpen, f.repo.bets[id].Status)
	assert.Empty(t, f.publ.events)
}

func TestProviderFailureReturnsBadGateway(t *testing.T) {
	f := newFixture(t, fixedProvider{err: errors.New("custodian down")})
	id := f.createBet(t)

	var e dto.ErrorResponse
	assert.Equal(t, http.StatusBadGateway, f.post(t, "/bets/"+id+"/wager", "", &e))
	assert.Equal(t, bet.StatusOpen, f.repo.bets[id].Status)
	assert.Empty(t, f.repo.bets[id].WagerTxID)
	assert.Empty(t, f.publ.events)
	assert.Equal(t, 1, f.locker.released)
}

func TestGetBet(t *testing.T) {
	f := newFixture(t, fixedProvider{})
	id := f.createBet(t)

	res, err := http.Get(f.srv.URL + "/bets/" + id)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var snap bet.Snapshot
	require.NoError(t, json.NewDecoder(res.Body).Decode(&snap))
	assert.Equal(t, id, snap.ID)
	assert.True(t, snap.Amount.Equal(decimal.NewFromInt(100)))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{repo.ErrNotFound, http.StatusNotFound},
		{lock.ErrBusy, http.StatusConflict},
		{bet.ErrDuplicateTransaction, http.StatusConflict},
		{bet.ErrUnsettledWager, http.StatusConflict},
		{bet.ErrInvalidAction, http.StatusBadRequest},
		{settlement.ErrProvider, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		code, _ := classify(tt.err)
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func TestListBetsOrderedByStatus(t *testing.T) {
	f := newFixture(t, fixedProvider{})
	settled := f.createBet(t)
	locked := f.createBet(t)
	open := f.createBet(t)
	require.Equal(t, http.StatusOK, f.post(t, "/bets/"+settled+"/wager", "", nil))
	require.Equal(t, http.StatusOK, f.post(t, "/bets/"+settled+"/payout", `{"destination":"addr1"}`, nil))
	require.Equal(t, http.StatusOK, f.post(t, "/bets/"+locked+"/wager", "", nil))

	get := func(query string) (int, dto.ListResponse) {
		res, err := http.Get(f.srv.URL + "/bets" + query)
		require.NoError(t, err)
		defer res.Body.Close()
		var out dto.ListResponse
		if res.StatusCode == http.StatusOK {
			require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
		}
		return res.StatusCode, out
	}

	code, list := get("")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, list.Bets, 3)
	assert.Equal(t, open, list.Bets[0].ID)
	assert.Equal(t, locked, list.Bets[1].ID)
	assert.Equal(t, settled, list.Bets[2].ID)
	assert.Equal(t, bet.StatusSettled, list.Bets[2].Status)

	code, list = get("?limit=1")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, list.Bets, 1)
	assert.Equal(t, open, list.Bets[0].ID)

	code, _ = get("?limit=zero")
	assert.Equal(t, http.StatusBadRequest, code)
}
