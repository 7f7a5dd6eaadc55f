package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storyfairy-server/internal/model"
)

const (
	getBalanceQuery = `SELECT balance FROM user_credits WHERE user_id = $1`

	lockBalanceQuery = `SELECT balance FROM user_credits WHERE user_id = $1 FOR UPDATE`

	upsertBalanceQuery = `
        INSERT INTO user_credits (user_id, balance, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (user_id) DO UPDATE SET
            balance = user_credits.balance + EXCLUDED.balance,
            updated_at = NOW()
        RETURNING balance
    `

	setBalanceQuery = `UPDATE user_credits SET balance = $2, updated_at = NOW() WHERE user_id = $1`

	insertTransactionQuery = `
        INSERT INTO credit_transactions (user_id, amount, reason, story_id, created_at)
        VALUES ($1, $2, $3, $4, NOW())
    `

	listTransactionsQuery = `
        SELECT id, user_id, amount, reason, story_id, created_at
        FROM credit_transactions
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `
)

// CreditTransaction is one row of the ledger history. Amount is positive for
// top-ups and negative for deductions.
type CreditTransaction struct {
	ID        int64     `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	Amount    int       `json:"amount" db:"amount"`
	Reason    string    `json:"reason" db:"reason"`
	StoryID   *string   `json:"storyId,omitempty" db:"story_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Ledger manages per-user credit balances. Deduct and Add are serialized per
// user with a row lock so concurrent generations cannot double-spend.
type Ledger interface {
	GetBalance(ctx context.Context, userID string) (int, error)
	Deduct(ctx context.Context, userID string, amount int, reason string, storyID *string) (int, error)
	Add(ctx context.Context, userID string, amount int, reason string) (int, error)
	History(ctx context.Context, userID string, limit int) ([]CreditTransaction, error)
}

type pgLedger struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgLedger creates the Postgres-backed credit ledger.
func NewPgLedger(pool *pgxpool.Pool, logger *zap.Logger) Ledger {
	return &pgLedger{
		pool:   pool,
		logger: logger.Named("Ledger"),
	}
}

// GetBalance returns the current balance. An unknown user has balance zero.
func (l *pgLedger) GetBalance(ctx context.Context, userID string) (int, error) {
	var balance int
	err := pgxscan.Get(ctx, l.pool, &balance, getBalanceQuery, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get balance for %s: %w", userID, err)
	}
	return balance, nil
}

// Deduct subtracts amount from the user's balance inside a transaction.
// Returns model.ErrInsufficientCredits without modifying anything when the
// balance does not cover the amount.
func (l *pgLedger) Deduct(ctx context.Context, userID string, amount int, reason string, storyID *string) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: deduction amount must be positive", model.ErrInvalidInput)
	}
	log := l.logger.With(zap.String("user_id", userID), zap.Int("amount", amount))

	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin deduct tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int
	err = pgxscan.Get(ctx, tx, &balance, lockBalanceQuery, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, model.ErrInsufficientCredits
	}
	if err != nil {
		return 0, fmt.Errorf("lock balance: %w", err)
	}
	if balance < amount {
		log.Warn("Deduction rejected, balance too low", zap.Int("balance", balance))
		return 0, model.ErrInsufficientCredits
	}

	newBalance := balance - amount
	if _, err := tx.Exec(ctx, setBalanceQuery, userID, newBalance); err != nil {
		return 0, fmt.Errorf("update balance: %w", err)
	}
	if _, err := tx.Exec(ctx, insertTransactionQuery, userID, -amount, reason, storyID); err != nil {
		return 0, fmt.Errorf("record transaction: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit deduct tx: %w", err)
	}

	log.Info("Credits deducted", zap.Int("new_balance", newBalance))
	return newBalance, nil
}

// Add credits the user's balance, creating the balance row if needed.
func (l *pgLedger) Add(ctx context.Context, userID string, amount int, reason string) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: top-up amount must be positive", model.ErrInvalidInput)
	}

	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin add tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var newBalance int
	if err := pgxscan.Get(ctx, tx, &newBalance, upsertBalanceQuery, userID, amount); err != nil {
		return 0, fmt.Errorf("upsert balance: %w", err)
	}
	if _, err := tx.Exec(ctx, insertTransactionQuery, userID, amount, reason, nil); err != nil {
		return 0, fmt.Errorf("record transaction: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit add tx: %w", err)
	}

	l.logger.Info("Credits added",
		zap.String("user_id", userID),
		zap.Int("amount", amount),
		zap.Int("new_balance", newBalance))
	return newBalance, nil
}

func (l *pgLedger) History(ctx context.Context, userID string, limit int) ([]CreditTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	var txs []CreditTransaction
	err := pgxscan.Select(ctx, l.pool, &txs, listTransactionsQuery, userID, limit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []CreditTransaction{}, nil
		}
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}
