package store

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Budgets are stored as a JSON object column: {"Groceries": "200", ...}.

func encodeBudgets(m map[string]decimal.Decimal) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeBudgets(s string) (map[string]decimal.Decimal, error) {
	if s == "" || s == "{}" {
		return map[string]decimal.Decimal{}, nil
	}
	var m map[string]decimal.Decimal
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
