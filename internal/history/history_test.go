package history

import (
	"context"
	"testing"
	"time"

	"github.com/kazi-pay/kazi_pay/internal/transaction"
)

const walletID = "11111111-1111-1111-1111-111111111111"

type staticSource struct {
	entries []Entry
}

func (s *staticSource) Entries(_ context.Context, _ string) ([]Entry, error) {
	return s.entries, nil
}

func TestHistoryMergesSourcesNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	txs := &staticSource{entries: []Entry{
		{Type: "send_to_mpesa", Reference: "TRX0000000000001", Amount: 500, Status: "completed", Reason: "airtime", Date: base.Add(2 * time.Hour)},
		{Type: "transfer_to_wallet", Reference: "TRX0000000000002", Amount: 1200, Status: "completed", Reason: "lunch", Date: base},
	}}
	statements := &MemoryMpesaStatements{Statements: []MpesaStatement{
		{WalletID: walletID, Receipt: "QAB12CD34E", Amount: 3000, Direction: "deposit", Purpose: "salary top-up", Status: "completed", CreatedAt: base.Add(time.Hour)},
		{WalletID: "other-wallet", Receipt: "QXX99ZZ00Y", Amount: 900, Direction: "deposit", Status: "completed", CreatedAt: base.Add(3 * time.Hour)},
	}}
	loans := &MemoryLoanEntries{Loans: []LoanEntry{
		{WalletID: walletID, LoanAccount: "ADV-2026-044", Amount: 10000, Status: "completed", CreatedAt: base.Add(30 * time.Minute)},
	}}

	svc := NewService(txs, statements, loans)
	page, err := svc.History(context.Background(), walletID, 1, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}

	if page.Total != 4 {
		t.Fatalf("total = %d, want 4 (foreign wallet rows must be excluded)", page.Total)
	}
	wantRefs := []string{"TRX0000000000001", "QAB12CD34E", "ADV-2026-044", "TRX0000000000002"}
	for i, want := range wantRefs {
		if got := page.Entries[i].Reference; got != want {
			t.Errorf("entry %d reference = %q, want %q", i, got, want)
		}
	}
}

func TestHistoryReasonFallbacks(t *testing.T) {
	base := time.Now().UTC()

	statements := &MemoryMpesaStatements{Statements: []MpesaStatement{
		{WalletID: walletID, Receipt: "R1", Amount: 100, Direction: "deposit", Purpose: "rent", CreatedAt: base},
		{WalletID: walletID, Receipt: "R2", Amount: 100, Direction: "withdrawal", CreatedAt: base.Add(time.Second)},
	}}
	loans := &MemoryLoanEntries{Loans: []LoanEntry{
		{WalletID: walletID, Amount: 100, CreatedAt: base.Add(2 * time.Second)},
	}}

	svc := NewService(statements, loans)
	page, err := svc.History(context.Background(), walletID, 1, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}

	reasons := map[string]string{}
	for _, e := range page.Entries {
		reasons[e.Reference] = e.Reason
	}
	if reasons["R1"] != "rent" {
		t.Errorf("purpose should win, got %q", reasons["R1"])
	}
	if reasons["R2"] != "R2" {
		t.Errorf("receipt should back up a missing purpose, got %q", reasons["R2"])
	}
	// No loan account either: the raw type is the last non-empty fallback.
	if reasons[""] != "loan" {
		t.Errorf("loan entry reason = %q, want raw type fallback", reasons[""])
	}
}

func TestReasonUnknownWhenEverythingEmpty(t *testing.T) {
	if got := Reason("", "", "", ""); got != "Unknown" {
		t.Fatalf("Reason = %q, want Unknown", got)
	}
}

func TestHistoryPagination(t *testing.T) {
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	src := &staticSource{}
	for i := 0; i < 25; i++ {
		src.entries = append(src.entries, Entry{
			Reference: "E" + string(rune('A'+i)),
			Amount:    int64(100 + i),
			Date:      base.Add(time.Duration(i) * time.Minute),
		})
	}

	svc := NewService(src)
	page, err := svc.History(context.Background(), walletID, 2, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}

	if len(page.Entries) != 10 || page.TotalPages != 3 {
		t.Fatalf("page 2 has %d entries across %d pages, want 10/3", len(page.Entries), page.TotalPages)
	}
	if !page.HasNext || !page.HasPrev {
		t.Fatalf("page 2 of 3 must have both neighbours")
	}
	// Newest first: page 2 starts at the 11th newest, amount 114.
	if page.Entries[0].Amount != 114 || page.Entries[9].Amount != 105 {
		t.Fatalf("page 2 amounts = %d..%d, want 114..105", page.Entries[0].Amount, page.Entries[9].Amount)
	}

	empty, err := svc.History(context.Background(), walletID, 9, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(empty.Entries) != 0 || empty.HasNext {
		t.Fatalf("out-of-range page must be empty with no next page")
	}
}

func TestTransactionSourceAdaptsRecords(t *testing.T) {
	txService := transaction.NewService(transaction.NewMemoryRepository())
	created, err := txService.Create(context.Background(), transaction.CreateInput{
		WalletID:       walletID,
		Type:           transaction.TypeSendToMpesa,
		Amount:         750,
		RecipientPhone: "254712345678",
		Description:    "electricity tokens",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	src := NewTransactionSource(txService)
	entries, err := src.Entries(context.Background(), walletID)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}

	e := entries[0]
	if e.Type != string(transaction.TypeSendToMpesa) || e.Reference != created.Reference {
		t.Errorf("entry identity mismatch: %+v", e)
	}
	if e.Amount != 750 || e.Status != string(transaction.StatusPending) {
		t.Errorf("entry amount/status mismatch: %+v", e)
	}
	if e.Reason != "electricity tokens" {
		t.Errorf("reason = %q, want the record's description", e.Reason)
	}
}
