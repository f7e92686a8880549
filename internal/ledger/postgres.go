package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresRepository persists ledger entries in PostgreSQL. Rows are only
// ever inserted, never updated or deleted.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed bookkeeping log.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append inserts one entry row.
func (r *PostgresRepository) Append(ctx context.Context, entry Entry) error {
	id, err := uuid.Parse(entry.ID)
	if err != nil {
		return fmt.Errorf("invalid entry id: %w", err)
	}

	_, err = r.db.Exec(ctx, `INSERT INTO ledger_entries
        (id, from_address, to_address, amount, fee, tx_hash, kind, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, entry.FromAddress, entry.ToAddress,
		entry.Amount.String(), entry.Fee.String(),
		entry.TxHash, entry.Kind, entry.CreatedAt.UTC())
	return err
}

// ListByAddress fetches entries touching the address, newest first.
func (r *PostgresRepository) ListByAddress(ctx context.Context, address string, limit int) ([]Entry, error) {
	rows, err := r.db.Query(ctx, `SELECT id, from_address, to_address, amount, fee, tx_hash, kind, created_at
        FROM ledger_entries
        WHERE from_address = $1 OR to_address = $1
        ORDER BY created_at DESC
        LIMIT $2`, address, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			id        uuid.UUID
			amount    string
			fee       string
			createdAt time.Time
		)
		if err := rows.Scan(&id, &e.FromAddress, &e.ToAddress, &amount, &fee, &e.TxHash, &e.Kind, &createdAt); err != nil {
			return nil, err
		}
		e.ID = id.String()
		e.CreatedAt = createdAt.UTC()
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("corrupt amount on entry %s: %w", e.ID, err)
		}
		if e.Fee, err = decimal.NewFromString(fee); err != nil {
			return nil, fmt.Errorf("corrupt fee on entry %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
