package custody

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrProviderHTTP  = errors.New("custody http error")
	ErrEmptyResponse = errors.New("custody returned empty transaction id")
)

// Client implementa o Provider falando com o custody-service via HTTP.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(base, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) CreateCharge(ctx context.Context, amount decimal.Decimal, currency, reference string) (string, error) {
	return c.post(ctx, "/custody/charge", chargeRequest{Amount: amount, Currency: currency, Reference: reference})
}

func (c *Client) SendPayout(ctx context.Context, amount decimal.Decimal, currency, destination string) (string, error) {
	return c.post(ctx, "/custody/payout", payoutRequest{Amount: amount, Currency: currency, Destination: destination})
}

func (c *Client) RefundCharge(ctx context.Context, sourceTxID string) (string, error) {
	return c.post(ctx, "/custody/refund", refundRequest{SourceTxID: sourceTxID})
}

func (c *Client) post(ctx context.Context, path string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return "", fmt.Errorf("%w: %s %d: %s", ErrProviderHTTP, path, res.StatusCode, strings.TrimSpace(string(msg)))
	}
	var out txResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode %s response: %w", path, err)
	}
	if out.TxID == "" {
		return "", ErrEmptyResponse
	}
	return out.TxID, nil
}
