// Command seeduser inserts (or updates) a demo user whose digest fires two
// minutes from now. Handy for verifying the full pipeline end to end
// against a sandbox Plaid token.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finnai/digest-bot/internal/domain"
	"github.com/finnai/digest-bot/internal/store"
)

func main() {
	var (
		dbPath  = flag.String("db", "./data/digest.db", "path to the sqlite database")
		userID  = flag.String("id", "", "user id to upsert (default: random)")
		chatID  = flag.Int64("chat", 0, "telegram chat id to deliver to (required)")
		tz      = flag.String("tz", "America/New_York", "IANA timezone")
		trigger = flag.String("at", "", "local trigger time HH:MM (default: two minutes from now)")
		token   = flag.String("plaid-token", "", "plaid access token (empty = no linked account)")
	)
	flag.Parse()

	if *chatID == 0 {
		fmt.Fprintln(os.Stderr, "missing -chat: run /start against your bot and use the reported chat id")
		os.Exit(2)
	}

	loc, err := domain.ValidateTZ(*tz)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid timezone %q: %v\n", *tz, err)
		os.Exit(2)
	}

	digestTime := *trigger
	if digestTime == "" {
		digestTime = time.Now().In(loc).Add(2 * time.Minute).Format("15:04")
	}
	if err := domain.ValidateTriggerTime(digestTime); err != nil {
		fmt.Fprintf(os.Stderr, "invalid trigger time %q: %v\n", digestTime, err)
		os.Exit(2)
	}

	id := *userID
	if id == "" {
		id = uuid.NewString()
	}

	user := &domain.User{
		ID:        id,
		FirstName: "Test",
		LastName:  "User",
		ChatID:    *chatID,
		Timezone:  *tz,
		Settings: domain.Settings{
			DigestEnabled: true,
			DigestTime:    digestTime,
			Model:         "gpt-4o-mini",
			Temperature:   0.7,
		},
		PlaidAccessToken: *token,
		Budgets: map[string]decimal.Decimal{
			"Groceries": decimal.NewFromInt(200),
			"Travel":    decimal.NewFromInt(150),
		},
		TargetBalance: decimal.NewFromInt(5000),
		CreatedAt:     time.Now().UTC(),
	}

	ctx := context.Background()
	repo, err := store.OpenSQLite(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.UpsertUser(ctx, user); err != nil {
		fmt.Fprintf(os.Stderr, "upsert user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("user %s will receive a digest at %s (%s)\n", id, digestTime, *tz)
}
