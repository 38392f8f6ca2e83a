package custody

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/custodial-bet-settlement/internal/settlement"
)

var _ settlement.Provider = (*Client)(nil)

func TestClientRoutes(t *testing.T) {
	var got []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		body["path"] = r.URL.Path
		got = append(got, body)

		switch r.URL.Path {
		case "/custody/charge":
			_, _ = w.Write([]byte(`{"tx_id":"chg_b1_abc"}`))
		case "/custody/payout":
			_, _ = w.Write([]byte(`{"tx_id":"payout_addr1_xyz"}`))
		case "/custody/refund":
			_, _ = w.Write([]byte(`{"tx_id":"refund_chg_b1_abc_qqq"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second)
	ctx := context.Background()
	amount := decimal.RequireFromString("100.25")

	id, err := c.CreateCharge(ctx, amount, "USD", "b1")
	require.NoError(t, err)
	assert.Equal(t, "chg_b1_abc", id)

	id, err = c.SendPayout(ctx, amount, "USD", "addr1")
	require.NoError(t, err)
	assert.Equal(t, "payout_addr1_xyz", id)

	id, err = c.RefundCharge(ctx, "chg_b1_abc")
	require.NoError(t, err)
	assert.Equal(t, "refund_chg_b1_abc_qqq", id)

	require.Len(t, got, 3)
	assert.Equal(t, map[string]any{"path": "/custody/charge", "amount": "100.25", "currency": "USD", "reference": "b1"}, got[0])
	assert.Equal(t, "addr1", got[1]["destination"])
	assert.Equal(t, "chg_b1_abc", got[2]["source_tx_id"])
}

func TestClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/custody/refund":
			http.Error(w, "charge not found", http.StatusNotFound)
		default:
			_, _ = w.Write([]byte(`{"tx_id":""}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)

	_, err := c.RefundCharge(context.Background(), "chg_missing")
	require.ErrorIs(t, err, ErrProviderHTTP)
	assert.Contains(t, err.Error(), "charge not found")

	_, err = c.CreateCharge(context.Background(), decimal.NewFromInt(1), "USD", "b1")
	require.ErrorIs(t, err, ErrEmptyResponse)
}
