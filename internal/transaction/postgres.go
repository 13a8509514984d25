package transaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

// PostgresRepository stores transaction records in PostgreSQL. The reference
// column carries a unique constraint enforcing global reference uniqueness.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `id, reference, wallet_id, transaction_type, amount, status,
    recipient_wallet_id, recipient_phone, description, admin_remarks, created_at`

// Create inserts the initial pending record. Exactly one durable write.
func (r *PostgresRepository) Create(ctx context.Context, tx Transaction) error {
	txID, err := uuid.Parse(tx.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO wallet_transactions
        (id, reference, wallet_id, transaction_type, amount, status,
         recipient_wallet_id, recipient_phone, description, admin_remarks, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		txID, tx.Reference, tx.WalletID, string(tx.Type), tx.Amount, string(tx.Status),
		tx.RecipientWalletID, tx.RecipientPhone, tx.Description, tx.AdminRemarks, tx.CreatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrDuplicateReference
		}
		return err
	}
	return nil
}

// Get fetches a record by internal identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Transaction, error) {
	txID, err := uuid.Parse(id)
	if err != nil {
		return Transaction{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM wallet_transactions WHERE id = $1`, txID)
	return scanTransaction(row)
}

// GetByReference fetches a record by its external-facing reference.
func (r *PostgresRepository) GetByReference(ctx context.Context, reference string) (Transaction, error) {
	row := r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM wallet_transactions WHERE reference = $1`, reference)
	return scanTransaction(row)
}

// ApplyTransition moves a pending record to a terminal status. The status
// guard in the WHERE clause makes the transition a single conditional write.
func (r *PostgresRepository) ApplyTransition(ctx context.Context, id string, status Status, remarks string) (bool, error) {
	txID, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}
	tag, err := r.db.Exec(ctx, `UPDATE wallet_transactions
        SET status = $2, admin_remarks = $3
        WHERE id = $1 AND status = $4`,
		txID, string(status), remarks, string(StatusPending))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListByWallet returns every record for the wallet, newest first.
func (r *PostgresRepository) ListByWallet(ctx context.Context, walletID string) ([]Transaction, error) {
	rows, err := r.db.Query(ctx, `SELECT `+selectColumns+` FROM wallet_transactions
        WHERE wallet_id = $1 ORDER BY created_at DESC, id DESC`, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// List applies the conjunctive filter and returns one page plus the total count.
func (r *PostgresRepository) List(ctx context.Context, filter Filter) ([]Transaction, int, error) {
	where, args := buildWhere(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM wallet_transactions` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)
	pageQuery := fmt.Sprintf(`SELECT `+selectColumns+` FROM wallet_transactions%s
        ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, pageQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records, err := collectTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// GroupTotals is phase one of the statistics roll-up: grouping pushed to the
// query layer, per-type aggregation done by the service.
func (r *PostgresRepository) GroupTotals(ctx context.Context, walletID string) ([]GroupTotal, error) {
	query := `SELECT transaction_type, status, COUNT(*), COALESCE(SUM(amount), 0)
        FROM wallet_transactions`
	args := []any{}
	if walletID != "" {
		query += ` WHERE wallet_id = $1`
		args = append(args, walletID)
	}
	query += ` GROUP BY transaction_type, status ORDER BY transaction_type, status`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []GroupTotal
	for rows.Next() {
		var g GroupTotal
		var txType, status string
		if err := rows.Scan(&txType, &status, &g.Count, &g.TotalAmount); err != nil {
			return nil, err
		}
		g.Type = Type(txType)
		g.Status = Status(status)
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func buildWhere(filter Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(clause, len(args)))
	}

	if filter.WalletID != "" {
		add("wallet_id = $%d", filter.WalletID)
	}
	if filter.Type != "" {
		add("transaction_type = $%d", string(filter.Type))
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.MinAmount > 0 {
		add("amount >= $%d", filter.MinAmount)
	}
	if filter.MaxAmount > 0 {
		add("amount <= $%d", filter.MaxAmount)
	}
	if !filter.From.IsZero() {
		add("created_at >= $%d", filter.From.UTC())
	}
	if !filter.To.IsZero() {
		add("created_at <= $%d", filter.To.UTC())
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var tx Transaction
	var id uuid.UUID
	var txType, status string
	var createdAt time.Time
	err := row.Scan(&id, &tx.Reference, &tx.WalletID, &txType, &tx.Amount, &status,
		&tx.RecipientWalletID, &tx.RecipientPhone, &tx.Description, &tx.AdminRemarks, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, err
	}
	tx.ID = id.String()
	tx.Type = Type(txType)
	tx.Status = Status(status)
	tx.CreatedAt = createdAt.UTC()
	return tx, nil
}

func collectTransactions(rows pgx.Rows) ([]Transaction, error) {
	var records []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, tx)
	}
	return records, rows.Err()
}
