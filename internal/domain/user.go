package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Settings holds a user's digest preferences. They are mutated by the
// settings surface elsewhere in the system; read-only to this process.
type Settings struct {
	DigestEnabled bool
	DigestTime    string // local "HH:MM"; empty means never fire
	Model         string // generative model name, e.g. "gpt-4o-mini"
	Temperature   float32
}

// User represents one recipient of the scheduled financial digest.
type User struct {
	ID               string
	FirstName        string
	LastName         string
	ChatID           int64  // Telegram destination
	Timezone         string // IANA zone name
	Settings         Settings
	PlaidAccessToken string                     // empty = no linked bank account
	Budgets          map[string]decimal.Decimal // category -> monthly limit
	TargetBalance    decimal.Decimal
	CreatedAt        time.Time // UTC
}

// DisplayName joins first and last name, falling back to "User".
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return "User"
	}
	return name
}
