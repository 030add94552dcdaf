package bank

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
)

func newTestClient(serverURL string) *Client {
	c := New("client-id", "secret", "sandbox", 5*time.Second)
	c.baseURL = serverURL
	return c
}

func TestRecentTransactions_ParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transactions/get", r.URL.Path)

		var req transactionsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "client-id", req.ClientID)
		assert.Equal(t, "access-sandbox-token", req.AccessToken)
		assert.Equal(t, 100, req.Options.Count)

		_, _ = w.Write([]byte(`{
			"transactions": [
				{
					"transaction_id": "t1",
					"date": "2025-08-28",
					"authorized_date": "2025-08-27",
					"name": "Grocery Store Purchase",
					"amount": 50.75,
					"category": ["Shops", "Groceries"],
					"pending": false
				},
				{
					"transaction_id": "t2",
					"date": "2025-08-26",
					"name": "Buy stock: 61 shares of AAPL",
					"amount": -6598.96,
					"category": ["Investment", "Stock"],
					"pending": false,
					"ticker": "AAPL",
					"shares": 61,
					"price_per_share": 108.16,
					"fees": 1.2,
					"transaction_type": "buy"
				}
			],
			"accounts": [{"account_id": "a1", "name": "Checking", "type": "depository"}]
		}`))
	}))
	defer srv.Close()

	txs, err := newTestClient(srv.URL).RecentTransactions(context.Background(), "access-sandbox-token", 7)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "t1", txs[0].ID)
	assert.Equal(t, "Shops", txs[0].Category())
	assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("50.75")))
	assert.Equal(t, 2025, txs[0].Date.Year())

	assert.True(t, txs[1].IsStock())
	assert.Equal(t, "AAPL", txs[1].Ticker)
	assert.Equal(t, "buy", txs[1].TradeType)
}

func TestRecentTransactions_InvalidToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{
			"error_type": "INVALID_INPUT",
			"error_code": "INVALID_ACCESS_TOKEN",
			"error_message": "could not find matching access token"
		}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).RecentTransactions(context.Background(), "bogus", 7)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRecentTransactions_OtherAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{
			"error_type": "RATE_LIMIT_EXCEEDED",
			"error_code": "TRANSACTIONS_LIMIT",
			"error_message": "rate limit exceeded"
		}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).RecentTransactions(context.Background(), "token", 7)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidToken)
	assert.Contains(t, err.Error(), "TRANSACTIONS_LIMIT")
}

func TestNew_UnknownEnvFallsBackToSandbox(t *testing.T) {
	c := New("id", "secret", "staging", time.Second)
	assert.Equal(t, environments["sandbox"], c.baseURL)
}
