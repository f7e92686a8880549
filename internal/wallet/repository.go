package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/qoin-wallet/qoin_gateway/internal/ledger"
)

// ErrNotFound occurs when no wallet matches the requested address or user.
var ErrNotFound = errors.New("wallet not found")

// ErrExists occurs when a wallet already exists for the address or user.
var ErrExists = errors.New("wallet already exists")

// Repository persists wallet rows and their cached balances. Credit and
// Debit are atomic at the store level; Debit refuses to take the balance
// below zero.
type Repository interface {
	Create(ctx context.Context, w Wallet) error
	// Ensure inserts the wallet if its address is absent and is a no-op
	// otherwise. Used for internal accounts such as the fee-collection
	// wallet.
	Ensure(ctx context.Context, w Wallet) error
	GetByAddress(ctx context.Context, address string) (Wallet, error)
	GetByUser(ctx context.Context, userID string) (Wallet, error)
	Balance(ctx context.Context, address string) (decimal.Decimal, error)
	// Credit adds amount to the cached balance and returns the new figure.
	Credit(ctx context.Context, address string, amount decimal.Decimal) (decimal.Decimal, error)
	// Debit subtracts amount only if the balance stays non-negative,
	// returning ledger.ErrInsufficientBalance otherwise.
	Debit(ctx context.Context, address string, amount decimal.Decimal) (decimal.Decimal, error)
}

// PostgresRepository stores wallets in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a wallet row with its sealed secret.
func (r *PostgresRepository) Create(ctx context.Context, w Wallet) error {
	tag, err := r.db.Exec(ctx, `INSERT INTO wallets (user_id, email, address, secret_enc, balance, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (address) DO NOTHING`,
		w.UserID, w.Email, w.Address, w.SecretEnc, w.Balance.String(), w.CreatedAt.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExists
	}
	return nil
}

// Ensure inserts the wallet unless its address is already present.
func (r *PostgresRepository) Ensure(ctx context.Context, w Wallet) error {
	_, err := r.db.Exec(ctx, `INSERT INTO wallets (user_id, email, address, secret_enc, balance, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (address) DO NOTHING`,
		w.UserID, w.Email, w.Address, w.SecretEnc, w.Balance.String(), w.CreatedAt.UTC())
	return err
}

// GetByAddress fetches a wallet by ledger address.
func (r *PostgresRepository) GetByAddress(ctx context.Context, address string) (Wallet, error) {
	return r.get(ctx, `SELECT user_id, email, address, secret_enc, balance, created_at
        FROM wallets WHERE address = $1`, address)
}

// GetByUser fetches a wallet by the application-level account identifier.
func (r *PostgresRepository) GetByUser(ctx context.Context, userID string) (Wallet, error) {
	return r.get(ctx, `SELECT user_id, email, address, secret_enc, balance, created_at
        FROM wallets WHERE user_id = $1`, userID)
}

func (r *PostgresRepository) get(ctx context.Context, query, arg string) (Wallet, error) {
	var (
		w         Wallet
		balance   string
		createdAt time.Time
	)
	err := r.db.QueryRow(ctx, query, arg).Scan(&w.UserID, &w.Email, &w.Address, &w.SecretEnc, &balance, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}
	w.CreatedAt = createdAt.UTC()
	if w.Balance, err = decimal.NewFromString(balance); err != nil {
		return Wallet{}, fmt.Errorf("corrupt balance for %s: %w", w.Address, err)
	}
	return w, nil
}

// Balance returns the cached balance for the address.
func (r *PostgresRepository) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	var balance string
	err := r.db.QueryRow(ctx, `SELECT balance FROM wallets WHERE address = $1`, address).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, err
	}
	return decimal.NewFromString(balance)
}

// Credit atomically adds amount to the cached balance.
func (r *PostgresRepository) Credit(ctx context.Context, address string, amount decimal.Decimal) (decimal.Decimal, error) {
	var balance string
	err := r.db.QueryRow(ctx, `UPDATE wallets SET balance = balance + $1
        WHERE address = $2 RETURNING balance`, amount.String(), address).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, err
	}
	return decimal.NewFromString(balance)
}

// Debit atomically subtracts amount, expressed as a conditional update so the
// balance can never go negative even outside the per-account lock.
func (r *PostgresRepository) Debit(ctx context.Context, address string, amount decimal.Decimal) (decimal.Decimal, error) {
	var balance string
	err := r.db.QueryRow(ctx, `UPDATE wallets SET balance = balance - $1
        WHERE address = $2 AND balance >= $1 RETURNING balance`, amount.String(), address).Scan(&balance)
	if err == nil {
		return decimal.NewFromString(balance)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, err
	}

	// distinguish a missing wallet from an insufficient balance
	if _, lookupErr := r.Balance(ctx, address); lookupErr != nil {
		return decimal.Zero, lookupErr
	}
	return decimal.Zero, ledger.ErrInsufficientBalance
}
