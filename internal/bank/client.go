// Package bank talks to the Plaid transactions API. One client is built at
// startup and shared; requests carry per-call contexts.
package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finnai/digest-bot/internal/domain"
)

// ErrInvalidToken marks an invalid or expired access token. Callers treat it
// as "re-link the account", not as a transient failure.
var ErrInvalidToken = errors.New("invalid or expired access token")

var environments = map[string]string{
	"sandbox":     "https://sandbox.plaid.com",
	"development": "https://development.plaid.com",
	"production":  "https://production.plaid.com",
}

const dateLayout = "2006-01-02"

// Client is a long-lived Plaid API client, safe for concurrent use.
type Client struct {
	baseURL    string
	clientID   string
	secret     string
	httpClient *http.Client
}

// New creates a Plaid client for the given environment. Unknown environments
// fall back to sandbox.
func New(clientID, secret, env string, timeout time.Duration) *Client {
	baseURL, ok := environments[env]
	if !ok {
		baseURL = environments["sandbox"]
	}
	return &Client{
		baseURL:    baseURL,
		clientID:   clientID,
		secret:     secret,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type transactionsRequest struct {
	ClientID    string             `json:"client_id"`
	Secret      string             `json:"secret"`
	AccessToken string             `json:"access_token"`
	StartDate   string             `json:"start_date"`
	EndDate     string             `json:"end_date"`
	Options     transactionsOption `json:"options"`
}

type transactionsOption struct {
	Count  int `json:"count"`
	Offset int `json:"offset"`
}

type transactionJSON struct {
	TransactionID   string          `json:"transaction_id"`
	Date            string          `json:"date"`
	AuthorizedDate  string          `json:"authorized_date"`
	Name            string          `json:"name"`
	Amount          decimal.Decimal `json:"amount"`
	Category        []string        `json:"category"`
	Pending         bool            `json:"pending"`
	Ticker          string          `json:"ticker"`
	Shares          decimal.Decimal `json:"shares"`
	PricePerShare   decimal.Decimal `json:"price_per_share"`
	Fees            decimal.Decimal `json:"fees"`
	TransactionType string          `json:"transaction_type"`
}

type transactionsResponse struct {
	Transactions []transactionJSON `json:"transactions"`
}

type apiError struct {
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// RecentTransactions fetches the user's transactions for the trailing `days`
// window, newest-first as Plaid returns them.
func (c *Client) RecentTransactions(ctx context.Context, accessToken string, days int) ([]domain.Transaction, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	payload := transactionsRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		AccessToken: accessToken,
		StartDate:   start.Format(dateLayout),
		EndDate:     end.Format(dateLayout),
		Options:     transactionsOption{Count: 100},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal transactions request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transactions/get", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("plaid request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read plaid response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if jsonErr := json.Unmarshal(raw, &apiErr); jsonErr == nil {
			switch apiErr.ErrorCode {
			case "INVALID_ACCESS_TOKEN", "ITEM_LOGIN_REQUIRED":
				return nil, fmt.Errorf("%w: %s", ErrInvalidToken, apiErr.ErrorMessage)
			}
			return nil, fmt.Errorf("plaid error %s: %s", apiErr.ErrorCode, apiErr.ErrorMessage)
		}
		return nil, fmt.Errorf("plaid status %d", resp.StatusCode)
	}

	var parsed transactionsResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode plaid response: %w", err)
	}

	txs := make([]domain.Transaction, 0, len(parsed.Transactions))
	for _, j := range parsed.Transactions {
		txs = append(txs, j.toDomain())
	}
	return txs, nil
}

func (j transactionJSON) toDomain() domain.Transaction {
	tx := domain.Transaction{
		ID:            j.TransactionID,
		Name:          j.Name,
		Amount:        j.Amount,
		Categories:    j.Category,
		Pending:       j.Pending,
		Ticker:        j.Ticker,
		Shares:        j.Shares,
		PricePerShare: j.PricePerShare,
		Fees:          j.Fees,
		TradeType:     j.TransactionType,
	}
	if d, err := time.Parse(dateLayout, j.Date); err == nil {
		tx.Date = d
	}
	if d, err := time.Parse(dateLayout, j.AuthorizedDate); err == nil {
		tx.AuthorizedDate = d
	}
	return tx
}
