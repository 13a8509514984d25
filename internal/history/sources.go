package history

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kazi-pay/kazi_pay/internal/transaction"
)

// TransactionSource exposes the wallet transaction log as a history source.
type TransactionSource struct {
	transactions *transaction.Service
}

// NewTransactionSource adapts the transaction service.
func NewTransactionSource(transactions *transaction.Service) *TransactionSource {
	return &TransactionSource{transactions: transactions}
}

// Entries converts the wallet's transaction records to normalized entries.
func (s *TransactionSource) Entries(ctx context.Context, walletID string) ([]Entry, error) {
	records, err := s.transactions.ListByWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(records))
	for _, tx := range records {
		entries = append(entries, Entry{
			Type:      string(tx.Type),
			Reference: tx.Reference,
			Amount:    tx.Amount,
			Status:    string(tx.Status),
			Reason:    Reason("", tx.Description, tx.Reference, string(tx.Type)),
			Date:      tx.CreatedAt,
		})
	}
	return entries, nil
}

// MpesaStatement is one row in the mobile-money sub-ledger kept by the
// gateway integration.
type MpesaStatement struct {
	WalletID  string
	Receipt   string
	Amount    int64
	Direction string
	Purpose   string
	Status    string
	CreatedAt time.Time
}

// MpesaStatementSource reads the mobile-money statement sub-ledger from
// PostgreSQL.
type MpesaStatementSource struct {
	db *pgxpool.Pool
}

// NewMpesaStatementSource builds the pgx-backed statement reader.
func NewMpesaStatementSource(db *pgxpool.Pool) *MpesaStatementSource {
	return &MpesaStatementSource{db: db}
}

// Entries lists the wallet's mobile-money statements as normalized entries.
func (s *MpesaStatementSource) Entries(ctx context.Context, walletID string) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `SELECT receipt, amount, direction, purpose, status, created_at
        FROM mpesa_statements WHERE wallet_id = $1 ORDER BY created_at DESC`, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var st MpesaStatement
		if err := rows.Scan(&st.Receipt, &st.Amount, &st.Direction, &st.Purpose, &st.Status, &st.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, statementEntry(st))
	}
	return entries, rows.Err()
}

func statementEntry(st MpesaStatement) Entry {
	return Entry{
		Type:      "mpesa_" + st.Direction,
		Reference: st.Receipt,
		Amount:    st.Amount,
		Status:    st.Status,
		Reason:    Reason(st.Purpose, "", st.Receipt, st.Direction),
		Date:      st.CreatedAt.UTC(),
	}
}

// LoanEntry is one row in the payroll-advance/loan sub-ledger.
type LoanEntry struct {
	WalletID    string
	LoanAccount string
	Amount      int64
	Purpose     string
	Status      string
	CreatedAt   time.Time
}

// LoanSource reads the loan sub-ledger from PostgreSQL.
type LoanSource struct {
	db *pgxpool.Pool
}

// NewLoanSource builds the pgx-backed loan reader.
func NewLoanSource(db *pgxpool.Pool) *LoanSource {
	return &LoanSource{db: db}
}

// Entries lists the wallet's loan movements as normalized entries.
func (s *LoanSource) Entries(ctx context.Context, walletID string) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `SELECT loan_account, amount, purpose, status, created_at
        FROM loan_entries WHERE wallet_id = $1 ORDER BY created_at DESC`, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var le LoanEntry
		if err := rows.Scan(&le.LoanAccount, &le.Amount, &le.Purpose, &le.Status, &le.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, loanEntry(le))
	}
	return entries, rows.Err()
}

func loanEntry(le LoanEntry) Entry {
	return Entry{
		Type:      "loan",
		Reference: le.LoanAccount,
		Amount:    le.Amount,
		Status:    le.Status,
		Reason:    Reason(le.Purpose, "", le.LoanAccount, "loan"),
		Date:      le.CreatedAt.UTC(),
	}
}

// MemoryMpesaStatements is an in-memory statement sub-ledger for tests and
// local development.
type MemoryMpesaStatements struct {
	Statements []MpesaStatement
}

// Entries filters the held statements by wallet.
func (s *MemoryMpesaStatements) Entries(_ context.Context, walletID string) ([]Entry, error) {
	var entries []Entry
	for _, st := range s.Statements {
		if st.WalletID == walletID {
			entries = append(entries, statementEntry(st))
		}
	}
	return entries, nil
}

// MemoryLoanEntries is an in-memory loan sub-ledger for tests and local
// development.
type MemoryLoanEntries struct {
	Loans []LoanEntry
}

// Entries filters the held loan rows by wallet.
func (s *MemoryLoanEntries) Entries(_ context.Context, walletID string) ([]Entry, error) {
	var entries []Entry
	for _, le := range s.Loans {
		if le.WalletID == walletID {
			entries = append(entries, loanEntry(le))
		}
	}
	return entries, nil
}
