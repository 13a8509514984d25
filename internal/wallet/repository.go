package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists wallets and applies balance mutations.
type Repository interface {
	Create(ctx context.Context, wallet Wallet) error
	Get(ctx context.Context, id string) (Wallet, error)
	// Adjust applies delta (negative for debit) to the wallet balance as a
	// single atomic conditional update. A debit that would take the balance
	// below zero fails with ErrInsufficientFunds and leaves it untouched.
	Adjust(ctx context.Context, id string, delta int64) (int64, error)
}

// PostgresRepository stores wallets in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a wallet record.
func (r *PostgresRepository) Create(ctx context.Context, wallet Wallet) error {
	walletID, err := uuid.Parse(wallet.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO wallets (id, holder_name, phone, balance, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		walletID, wallet.HolderName, wallet.Phone, wallet.Balance, wallet.Status, wallet.CreatedAt.UTC())
	return err
}

// Get fetches a wallet by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Wallet, error) {
	walletUUID, err := uuid.Parse(id)
	if err != nil {
		return Wallet{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, holder_name, phone, balance, status, created_at
        FROM wallets WHERE id = $1`, walletUUID)
	var w Wallet
	var idVal uuid.UUID
	var createdAt time.Time
	if err := row.Scan(&idVal, &w.HolderName, &w.Phone, &w.Balance, &w.Status, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}
	w.ID = idVal.String()
	w.CreatedAt = createdAt.UTC()
	return w, nil
}

// Adjust performs the check-and-mutate as one conditional UPDATE so concurrent
// debits can never overdraw the wallet.
func (r *PostgresRepository) Adjust(ctx context.Context, id string, delta int64) (int64, error) {
	walletUUID, err := uuid.Parse(id)
	if err != nil {
		return 0, ErrNotFound
	}

	const query = `UPDATE wallets SET balance = balance + $2
        WHERE id = $1 AND balance + $2 >= 0
        RETURNING balance`

	var newBalance int64
	err = r.db.QueryRow(ctx, query, walletUUID, delta).Scan(&newBalance)
	if err == nil {
		return newBalance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	// The condition failed: either the wallet is missing or the debit would
	// overdraw it.
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM wallets WHERE id = $1)`, walletUUID).Scan(&exists); err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrNotFound
	}
	return 0, ErrInsufficientFunds
}
