package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/finnai/digest-bot/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

const userColumns = `user_id, first_name, last_name, chat_id, tz,
	digest_enabled, digest_time, model, temperature,
	plaid_access_token, budgets, target_balance, created_at`

// UpsertUser inserts or updates a user's profile and digest settings.
func (r *SQLiteRepo) UpsertUser(ctx context.Context, u *domain.User) error {
	if u == nil {
		return errors.New("nil user")
	}

	budgets, err := encodeBudgets(u.Budgets)
	if err != nil {
		return fmt.Errorf("encode budgets: %w", err)
	}
	created := u.CreatedAt.UTC().Unix()
	if u.CreatedAt.IsZero() {
		created = time.Now().UTC().Unix()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			first_name         = excluded.first_name,
			last_name          = excluded.last_name,
			chat_id            = excluded.chat_id,
			tz                 = excluded.tz,
			digest_enabled     = excluded.digest_enabled,
			digest_time        = excluded.digest_time,
			model              = excluded.model,
			temperature        = excluded.temperature,
			plaid_access_token = excluded.plaid_access_token,
			budgets            = excluded.budgets,
			target_balance     = excluded.target_balance`,
		u.ID, u.FirstName, u.LastName, u.ChatID, u.Timezone,
		boolToInt(u.Settings.DigestEnabled), u.Settings.DigestTime,
		u.Settings.Model, u.Settings.Temperature,
		u.PlaidAccessToken, budgets, u.TargetBalance.String(), created,
	)
	return err
}

// GetUser returns a user by id or ErrNotFound.
func (r *SQLiteRepo) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE user_id = ?`,
		id,
	)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ListEligible returns all users with the digest flag enabled, oldest first.
func (r *SQLiteRepo) ListEligible(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE digest_enabled = 1
		ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface{ Scan(dest ...any) error }

func scanUser(s scanner) (*domain.User, error) {
	var (
		u           domain.User
		enabledInt  int
		budgetsJSON string
		balance     string
		createdAt   int64
	)
	if err := s.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.ChatID, &u.Timezone,
		&enabledInt, &u.Settings.DigestTime, &u.Settings.Model,
		&u.Settings.Temperature, &u.PlaidAccessToken,
		&budgetsJSON, &balance, &createdAt,
	); err != nil {
		return nil, err
	}

	u.Settings.DigestEnabled = enabledInt != 0
	u.CreatedAt = time.Unix(createdAt, 0).UTC()

	budgets, err := decodeBudgets(budgetsJSON)
	if err != nil {
		return nil, fmt.Errorf("decode budgets for %s: %w", u.ID, err)
	}
	u.Budgets = budgets

	target, err := decodeAmount(balance)
	if err != nil {
		return nil, fmt.Errorf("decode target balance for %s: %w", u.ID, err)
	}
	u.TargetBalance = target

	return &u, nil
}

// boolToInt converts a boolean to 1/0 for SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
